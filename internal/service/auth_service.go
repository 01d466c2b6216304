package service

import (
	"errors"

	"upkeep/config"
	"upkeep/internal/auth"
	"upkeep/internal/models"
	"upkeep/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type AuthService struct {
	cfg        *config.Config
	collabRepo *repository.CollaboratorRepository
}

func NewAuthService(cfg *config.Config, collabRepo *repository.CollaboratorRepository) *AuthService {
	return &AuthService{cfg: cfg, collabRepo: collabRepo}
}

func (s *AuthService) Register(name, email, password, role, sector string) (*models.Collaborator, string, string, error) {
	_, err := s.collabRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	c := &models.Collaborator{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Sector:       sector,
	}
	if err := s.collabRepo.Create(c); err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(c)
}

func (s *AuthService) Login(email, password string) (*models.Collaborator, string, string, error) {
	c, err := s.collabRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCreds
	}
	return s.issueTokens(c)
}

func (s *AuthService) Refresh(refreshToken string) (*models.Collaborator, string, string, error) {
	id, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", err
	}
	c, err := s.collabRepo.GetByID(id)
	if err != nil {
		return nil, "", "", auth.ErrInvalidToken
	}
	return s.issueTokens(c)
}

func (s *AuthService) ChangePassword(collaboratorID uint, current, next string) error {
	c, err := s.collabRepo.GetByID(collaboratorID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return s.collabRepo.Update(c)
}

// LoginWithGoogle finds or creates the collaborator for a verified Google
// identity. New Google signups default to the OPERATOR role; an admin
// promotes them afterwards.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL, defaultRole string) (*models.Collaborator, string, string, error) {
	c, err := s.collabRepo.GetByGoogleID(googleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	if c == nil {
		// Link an existing email account before creating a new one.
		c, err = s.collabRepo.GetByEmail(email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", err
		}
		if c != nil {
			c.GoogleID = &googleID
			if c.AvatarURL == "" {
				c.AvatarURL = avatarURL
			}
			if err := s.collabRepo.Update(c); err != nil {
				return nil, "", "", err
			}
		} else {
			c = &models.Collaborator{
				Name:      name,
				Email:     email,
				GoogleID:  &googleID,
				AvatarURL: avatarURL,
				Role:      defaultRole,
			}
			if err := s.collabRepo.Create(c); err != nil {
				return nil, "", "", err
			}
		}
	}
	return s.issueTokens(c)
}

func (s *AuthService) issueTokens(c *models.Collaborator) (*models.Collaborator, string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, c.ID, c.Email, c.Name, c.Role)
	if err != nil {
		return c, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, c.ID)
	if err != nil {
		return c, access, "", err
	}
	return c, access, refresh, nil
}
