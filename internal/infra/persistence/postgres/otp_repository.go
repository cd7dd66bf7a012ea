package postgres

import (
	"context"

	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/repository"
	"securelogin/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// otpRepository implements the domain.OTPRepository interface.
type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository is the constructor for otpRepository.
func NewOTPRepository(db *gorm.DB) repository.OTPRepository {
	return &otpRepository{db: db}
}

// Upsert stores the challenge for its phone, replacing any existing one.
// A phone has at most one live code; reissuing invalidates the old one.
func (repo *otpRepository) Upsert(ctx context.Context, challenge *entity.OTPChallenge) error {
	challengeM := fromOTPChallengeDomain(challenge)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "created_at"}),
		}).
		Create(challengeM).Error; err != nil {
		return errors.Wrap(err, "failed to upsert otp challenge")
	}

	return nil
}

// FindByPhone retrieves the current challenge for a phone number.
func (repo *otpRepository) FindByPhone(ctx context.Context, phone string) (*entity.OTPChallenge, error) {
	var challengeM model.OTPChallengeModel
	if err := repo.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&challengeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOTPNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toOTPChallengeDomain(&challengeM), nil
}

// --- Mapper Functions ---

func toOTPChallengeDomain(data *model.OTPChallengeModel) *entity.OTPChallenge {
	if data == nil {
		return nil
	}

	return &entity.OTPChallenge{
		Phone:     data.Phone,
		Code:      data.Code,
		CreatedAt: data.CreatedAt,
	}
}

func fromOTPChallengeDomain(data *entity.OTPChallenge) *model.OTPChallengeModel {
	if data == nil {
		return nil
	}

	return &model.OTPChallengeModel{
		Phone:     data.Phone,
		Code:      data.Code,
		CreatedAt: data.CreatedAt,
	}
}
