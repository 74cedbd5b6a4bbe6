package repository

import (
	"context"

	"github.com/Anomaly-E-E/Falco/models"

	"gorm.io/gorm"
)

// ScanRepository defines the interface for scan data operations. Scans
// are write-once; there is no update or delete path.
type ScanRepository interface {
	Create(ctx context.Context, scan *models.Scan) error
	ListByUser(ctx context.Context, userID uint) ([]models.Scan, error)
}

// scanRepository implements ScanRepository
type scanRepository struct {
	db *gorm.DB
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

func (r *scanRepository) Create(ctx context.Context, scan *models.Scan) error {
	if err := r.db.WithContext(ctx).Create(scan).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByUser returns the user's scans, newest first.
func (r *scanRepository) ListByUser(ctx context.Context, userID uint) ([]models.Scan, error) {
	var scans []models.Scan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&scans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return scans, nil
}
