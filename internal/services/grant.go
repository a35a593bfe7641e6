package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

// GrantService manages per-(project,user) permission grants and serves as the
// grant source for authorization decisions.
type GrantService struct {
	db *gorm.DB
}

func NewGrantService(db *gorm.DB) *GrantService {
	return &GrantService{db: db}
}

// WithTx returns a GrantService bound to the given transaction.
func (s *GrantService) WithTx(tx *gorm.DB) *GrantService {
	return &GrantService{db: tx}
}

// GrantSet looks up the grant for a (project, user) pair. The bool reports
// whether a grant record exists; an absent record and an empty grant are
// different answers.
func (s *GrantService) GrantSet(ctx context.Context, projectID, userID uint) (authz.Set, bool, error) {
	var grant models.ProjectPermission
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	set, err := grant.PermissionSet()
	if err != nil {
		return nil, false, fmt.Errorf("corrupt grant row %d: %w", grant.ID, err)
	}
	return set, true, nil
}

// Upsert creates or replaces the grant for a (project, user) pair. The stored
// token list is replaced wholesale, never merged.
func (s *GrantService) Upsert(projectID, userID uint, set authz.Set) (*models.ProjectPermission, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d not found", projectID)
		}
		return nil, err
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, err
	}

	var grant models.ProjectPermission
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		grant = models.ProjectPermission{
			ProjectID: projectID,
			UserID:    userID,
		}
		grant.SetPermissions(set)
		if err := s.db.Create(&grant).Error; err != nil {
			return nil, err
		}
		return &grant, nil
	}
	if err != nil {
		return nil, err
	}

	grant.SetPermissions(set)
	if err := s.db.Save(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// Revoke removes the grant for a (project, user) pair. Revoking an absent
// grant is not an error.
func (s *GrantService) Revoke(projectID, userID uint) error {
	return s.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectPermission{}).Error
}

// RevokeAllForProject removes every grant attached to a project.
func (s *GrantService) RevokeAllForProject(projectID uint) error {
	return s.db.Where("project_id = ?", projectID).
		Delete(&models.ProjectPermission{}).Error
}

// RevokeAllForUser removes every grant held by a user.
func (s *GrantService) RevokeAllForUser(userID uint) error {
	return s.db.Where("user_id = ?", userID).
		Delete(&models.ProjectPermission{}).Error
}

// GetByID fetches a single grant with its project and user preloaded.
func (s *GrantService) GetByID(id uint) (*models.ProjectPermission, error) {
	var grant models.ProjectPermission
	if err := s.db.Preload("Project").Preload("User").First(&grant, id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// ListByProject returns all grants for a project with users preloaded.
func (s *GrantService) ListByProject(projectID uint) ([]models.ProjectPermission, error) {
	var grants []models.ProjectPermission
	if err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("user_id ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// ListByUser returns all grants held by a user with projects preloaded.
func (s *GrantService) ListByUser(userID uint) ([]models.ProjectPermission, error) {
	var grants []models.ProjectPermission
	if err := s.db.Preload("Project").
		Where("user_id = ?", userID).
		Order("project_id ASC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// MemberGrant pairs a user id with the permission tokens to grant.
type MemberGrant struct {
	UserID      uint     `json:"user_id" binding:"required"`
	Permissions []string `json:"permissions"`
}

// ReplaceForProject replaces a project's whole grant table in one
// transaction: existing grants for users not listed are removed, listed users
// are upserted. A member listed with an empty permission set is a revocation,
// not an empty grant row; the record must be gone afterwards so a later check
// reads "no project-level grant". Either all member rows land or none do.
func (s *GrantService) ReplaceForProject(projectID uint, members []MemberGrant) error {
	parsed := make(map[uint]authz.Set, len(members))
	for _, m := range members {
		set, err := authz.ParseList(m.Permissions)
		if err != nil {
			return fmt.Errorf("member %d: %w", m.UserID, err)
		}
		parsed[m.UserID] = set
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		txService := s.WithTx(tx)

		existing, err := txService.ListByProject(projectID)
		if err != nil {
			return err
		}
		for _, grant := range existing {
			if _, keep := parsed[grant.UserID]; !keep {
				if err := txService.Revoke(projectID, grant.UserID); err != nil {
					return err
				}
			}
		}

		for userID, set := range parsed {
			if len(set) == 0 {
				if err := txService.Revoke(projectID, userID); err != nil {
					return err
				}
				continue
			}
			if _, err := txService.Upsert(projectID, userID, set); err != nil {
				return err
			}
		}
		return nil
	})
}
