package services

import (
	"strconv"

	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("`key` = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("`key` = ?", key).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("`group` = ?", group).Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

type EmailConfigResponse struct {
	Enabled     bool   `json:"enabled"`
	SMTPHost    string `json:"host"`
	SMTPPort    int    `json:"port"`
	SMTPUser    string `json:"username"`
	FromAddress string `json:"from_address"`
	UseTLS      bool   `json:"use_tls"`
	PasswordSet bool   `json:"password_set"`
}

func (s *SystemConfigService) GetEmailConfig() *EmailConfigResponse {
	port, _ := strconv.Atoi(s.GetWithDefault("email_port", "587"))
	return &EmailConfigResponse{
		Enabled:     s.GetWithDefault("email_enabled", "false") == "true",
		SMTPHost:    s.GetWithDefault("email_host", ""),
		SMTPPort:    port,
		SMTPUser:    s.GetWithDefault("email_username", ""),
		FromAddress: s.GetWithDefault("email_from", ""),
		UseTLS:      s.GetWithDefault("email_use_tls", "false") == "true",
		PasswordSet: s.GetWithDefault("email_password", "") != "",
	}
}

type UpdateEmailConfigRequest struct {
	Enabled      *bool   `json:"enabled"`
	SMTPHost     *string `json:"host"`
	SMTPPort     *int    `json:"port"`
	SMTPUser     *string `json:"username"`
	SMTPPassword *string `json:"password"`
	FromAddress  *string `json:"from_address"`
	UseTLS       *bool   `json:"use_tls"`
}

func (s *SystemConfigService) UpdateEmailConfig(req *UpdateEmailConfigRequest) error {
	if req.Enabled != nil {
		if err := s.Set("email_enabled", strconv.FormatBool(*req.Enabled)); err != nil {
			return err
		}
	}
	if req.SMTPHost != nil {
		if err := s.Set("email_host", *req.SMTPHost); err != nil {
			return err
		}
	}
	if req.SMTPPort != nil {
		if err := s.Set("email_port", strconv.Itoa(*req.SMTPPort)); err != nil {
			return err
		}
	}
	if req.SMTPUser != nil {
		if err := s.Set("email_username", *req.SMTPUser); err != nil {
			return err
		}
	}
	if req.SMTPPassword != nil && *req.SMTPPassword != "" {
		if err := s.Set("email_password", *req.SMTPPassword); err != nil {
			return err
		}
	}
	if req.FromAddress != nil {
		if err := s.Set("email_from", *req.FromAddress); err != nil {
			return err
		}
	}
	if req.UseTLS != nil {
		if err := s.Set("email_use_tls", strconv.FormatBool(*req.UseTLS)); err != nil {
			return err
		}
	}
	return nil
}
