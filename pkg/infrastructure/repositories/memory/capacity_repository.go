package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// OilModel is one oil_model_master row
type OilModel struct {
	WTGModel            string
	YawDriveOilPerWTG   decimal.Decimal
	PitchDriveOilPerWTG decimal.Decimal
}

// FCThreshold is one fc_threshold row
type FCThreshold struct {
	Material               entities.MaterialCode
	WTGModel               string
	TenPercentReducedValue decimal.Decimal
}

// CapacityRepository provides in-memory capacity thresholds
type CapacityRepository struct {
	fcThresholds []FCThreshold
	oilModels    []OilModel
}

// NewCapacityRepository creates a new in-memory capacity repository
func NewCapacityRepository() *CapacityRepository {
	return &CapacityRepository{}
}

// Verify interface compliance
var _ repositories.CapacityRepository = (*CapacityRepository)(nil)

// AddFCThreshold adds an fc_threshold row
func (r *CapacityRepository) AddFCThreshold(t FCThreshold) {
	r.fcThresholds = append(r.fcThresholds, t)
}

// AddOilModel adds an oil_model_master row
func (r *CapacityRepository) AddOilModel(m OilModel) {
	r.oilModels = append(r.oilModels, m)
}

// FCThreshold returns the lowest reduced value for a material and model
func (r *CapacityRepository) FCThreshold(ctx context.Context, material entities.MaterialCode, wtgModel string) (*entities.CapacityThreshold, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var best *FCThreshold
	for i := range r.fcThresholds {
		t := &r.fcThresholds[i]
		if t.Material != material || t.WTGModel != wtgModel {
			continue
		}
		if best == nil || t.TenPercentReducedValue.LessThan(best.TenPercentReducedValue) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	return &entities.CapacityThreshold{
		WTGModel: best.WTGModel,
		Material: best.Material,
		Primary:  best.TenPercentReducedValue,
	}, nil
}

// OilModel returns the lowest yaw then pitch oil row for a model
func (r *CapacityRepository) OilModel(ctx context.Context, wtgModel string) (*entities.CapacityThreshold, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var best *OilModel
	for i := range r.oilModels {
		m := &r.oilModels[i]
		if m.WTGModel != wtgModel {
			continue
		}
		if best == nil ||
			m.YawDriveOilPerWTG.LessThan(best.YawDriveOilPerWTG) ||
			(m.YawDriveOilPerWTG.Equal(best.YawDriveOilPerWTG) && m.PitchDriveOilPerWTG.LessThan(best.PitchDriveOilPerWTG)) {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	return &entities.CapacityThreshold{
		WTGModel:  best.WTGModel,
		Primary:   best.YawDriveOilPerWTG,
		Secondary: decimal.NewNullDecimal(best.PitchDriveOilPerWTG),
	}, nil
}
