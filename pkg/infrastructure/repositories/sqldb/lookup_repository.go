package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// InstalledBaseRepository reads the installed base table
type InstalledBaseRepository struct {
	*DB
}

// NewInstalledBaseRepository creates an installed base repository on db
func NewInstalledBaseRepository(db *DB) *InstalledBaseRepository {
	return &InstalledBaseRepository{DB: db}
}

// Verify interface compliance
var _ repositories.InstalledBaseRepository = (*InstalledBaseRepository)(nil)

// FindByFunctionalLocation returns the first turbine at a location, or nil
func (r *InstalledBaseRepository) FindByFunctionalLocation(ctx context.Context, functionalLocation string) (*entities.InstalledBase, error) {
	d := r.dialect
	clause, pageArgs := d.Paginate(2, 0, 1)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s %s",
		d.QuoteAll([]string{"Functional_Location", "WTG_Model", "State", "Area", "Site"}),
		d.Quote(r.tables.InstalledBase),
		d.Quote("Functional_Location"), d.Placeholder(1),
		d.Quote("Functional_Location"),
		clause,
	)
	args := append([]any{functionalLocation}, pageArgs...)

	var floc, model, state, area, site sql.NullString
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&floc, &model, &state, &area, &site)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("find installed base", err)
	}
	return &entities.InstalledBase{
		FunctionalLocation: floc.String,
		WTGModel:           model.String,
		State:              state.String,
		Area:               area.String,
		Site:               site.String,
	}, nil
}

// CapacityRepository reads the fc_threshold and oil_model_master tables
type CapacityRepository struct {
	*DB
}

// NewCapacityRepository creates a capacity repository on db
func NewCapacityRepository(db *DB) *CapacityRepository {
	return &CapacityRepository{DB: db}
}

// Verify interface compliance
var _ repositories.CapacityRepository = (*CapacityRepository)(nil)

// FCThreshold returns the lowest ten_percent_reduced_value for a material and model
func (r *CapacityRepository) FCThreshold(ctx context.Context, material entities.MaterialCode, wtgModel string) (*entities.CapacityThreshold, error) {
	d := r.dialect
	value := d.Quote("ten_percent_reduced_value")
	clause, pageArgs := d.Paginate(3, 0, 1)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s AND %s = %s AND %s IS NOT NULL ORDER BY %s ASC %s",
		value,
		d.Quote(r.tables.FCThreshold),
		d.Quote("material_code"), d.Placeholder(1),
		d.Quote("wtg_model"), d.Placeholder(2),
		value, value,
		clause,
	)
	args := append([]any{string(material), wtgModel}, pageArgs...)

	var raw any
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("find fc threshold", err)
	}
	primary, err := parseThreshold("ten_percent_reduced_value", raw)
	if err != nil {
		return nil, err
	}
	return &entities.CapacityThreshold{
		WTGModel: wtgModel,
		Material: material,
		Primary:  primary,
	}, nil
}

// OilModel returns the lowest yaw then pitch drive oil row for a model
func (r *CapacityRepository) OilModel(ctx context.Context, wtgModel string) (*entities.CapacityThreshold, error) {
	d := r.dialect
	yaw := d.Quote("total_yaw_drive_oil_per_wtg")
	pitch := d.Quote("total_pitch_drive_oil_per_wtg")
	clause, pageArgs := d.Paginate(2, 0, 1)
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = %s AND %s IS NOT NULL AND %s IS NOT NULL ORDER BY %s ASC, %s ASC %s",
		yaw, pitch,
		d.Quote(r.tables.OilModel),
		d.Quote("wtg_model"), d.Placeholder(1),
		yaw, pitch,
		yaw, pitch,
		clause,
	)
	args := append([]any{wtgModel}, pageArgs...)

	var rawYaw, rawPitch any
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&rawYaw, &rawPitch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("find oil model", err)
	}
	primary, err := parseThreshold("total_yaw_drive_oil_per_wtg", rawYaw)
	if err != nil {
		return nil, err
	}
	secondary, err := parseThreshold("total_pitch_drive_oil_per_wtg", rawPitch)
	if err != nil {
		return nil, err
	}
	return &entities.CapacityThreshold{
		WTGModel:  wtgModel,
		Primary:   primary,
		Secondary: decimal.NewNullDecimal(secondary),
	}, nil
}

func parseThreshold(field string, raw any) (decimal.Decimal, error) {
	d, err := entities.ParseQuantity(raw)
	if err != nil {
		var perr *entities.ParseError
		if errors.As(err, &perr) {
			perr.Field = field
		}
		return decimal.Zero, err
	}
	return d, nil
}
