package implementation

import (
	"context"
	"errors"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/mapper"
	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

// IncrementCancellationCounter is the check-and-act for the monthly quota: the
// limit is evaluated by the same statement that increments the counter.
func (r *UserRepositoryImpl) IncrementCancellationCounter(ctx context.Context, userId uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userId).
		Where("monthly_cancellations < CASE WHEN monthly_cancellation_limit > 0 THEN monthly_cancellation_limit ELSE ? END", entity.DefaultMonthlyCancellationLimit).
		Update("monthly_cancellations", gorm.Expr("monthly_cancellations + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reservation.ErrQuotaExceeded
	}
	return nil
}
