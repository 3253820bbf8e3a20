package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// PostgresLedger keeps the append-only log in a Postgres table. The serial
// primary key is the ledger position, so append order is total and rows are
// never updated or deleted.
type PostgresLedger struct {
	db *gorm.DB
}

type anomalyRow struct {
	Position    uint64 `gorm:"primaryKey;autoIncrement"`
	Timestamp   int64  `gorm:"not null"`
	SensorID    string `gorm:"not null;index"`
	DataValue   int64  `gorm:"not null"`
	AnomalyType string `gorm:"not null"`
	Explanation string `gorm:"not null"`
}

func (anomalyRow) TableName() string {
	return "anomaly_ledger"
}

// NewPostgresLedger connects and migrates the ledger table; callers treat an
// error here as process-fatal.
func NewPostgresLedger(dsn string) (*PostgresLedger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := db.AutoMigrate(&anomalyRow{}); err != nil {
		return nil, fmt.Errorf("%w: migration failed: %v", ErrUnavailable, err)
	}
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) Append(ctx context.Context, record types.AnomalyRecord) (uint64, error) {
	row := anomalyRow{
		Timestamp:   record.Timestamp,
		SensorID:    record.SensorID,
		DataValue:   record.DataValue,
		AnomalyType: record.AnomalyType,
		Explanation: record.Explanation,
	}

	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, classifyPostgresError(ctx, err)
	}
	return row.Position, nil
}

func (l *PostgresLedger) ListAll(ctx context.Context) ([]CommittedRecord, error) {
	var rows []anomalyRow
	if err := l.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records := make([]CommittedRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, CommittedRecord{
			AnomalyRecord: types.AnomalyRecord{
				Timestamp:   r.Timestamp,
				SensorID:    r.SensorID,
				DataValue:   r.DataValue,
				AnomalyType: r.AnomalyType,
				Explanation: r.Explanation,
			},
			Position: r.Position,
		})
	}
	return records, nil
}

func classifyPostgresError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, gorm.ErrInvalidData) || errors.Is(err, gorm.ErrInvalidValue) {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
