package postgres

import (
	"context"
	"time"

	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/repository"
	"securelogin/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRepository implements the domain.SessionRepository interface.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session row at login time.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return errors.Wrap(err, "failed to create session")
	}

	// Update the entity with generated values
	session.ID = sessionM.ID

	return nil
}

// FindBySessionID retrieves a session by its stable session identifier.
func (repo *sessionRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toSessionDomain(&sessionM), nil
}

// FindBySessionIDForUpdate retrieves a session and locks the row with
// SELECT ... FOR UPDATE. Only meaningful inside a transaction; concurrent
// refreshes of the same session serialize on this lock.
func (repo *sessionRepository) FindBySessionIDForUpdate(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toSessionDomain(&sessionM), nil
}

// FindByUserID retrieves every session row for a user, newest first.
func (repo *sessionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	var sessionModels []*model.SessionModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessionModels).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	sessions := make([]*entity.Session, 0, len(sessionModels))
	for _, sessionM := range sessionModels {
		sessions = append(sessions, toSessionDomain(sessionM))
	}

	return sessions, nil
}

// UpdateRotation overwrites the session's jti and token timestamps after a refresh.
func (repo *sessionRepository) UpdateRotation(ctx context.Context, session *entity.Session) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]any{
			"jti":        session.JTI,
			"created_at": session.CreatedAt,
			"expires_at": session.ExpiresAt,
		})

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Deactivate sets active=false on the session row.
func (repo *sessionRepository) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("session_id = ?", sessionID).
		Update("active", false)

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	// Zero rows means the session never existed; an already inactive row
	// still matches the WHERE clause and counts as affected.
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// DeleteExpired removes session rows whose refresh token expired before now.
func (repo *sessionRepository) DeleteExpired(ctx context.Context) error {
	if err := repo.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.SessionModel{}).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// --- Mapper Functions ---

// toSessionDomain converts a GORM SessionModel to a domain Session entity.
func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:        data.ID,
		SessionID: data.SessionID,
		UserID:    data.UserID,
		JTI:       data.JTI,
		Active:    data.Active,
		CreatedAt: data.CreatedAt,
		ExpiresAt: data.ExpiresAt,
	}
}

// fromSessionDomain converts a domain Session entity to a GORM SessionModel.
func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:        data.ID,
		SessionID: data.SessionID,
		UserID:    data.UserID,
		JTI:       data.JTI,
		Active:    data.Active,
		CreatedAt: data.CreatedAt,
		ExpiresAt: data.ExpiresAt,
	}
}
