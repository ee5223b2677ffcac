package models

import (
	"fmt"
	"time"
)

// CodeRecord is one scan or generation event
type CodeRecord struct {
	ID         int64      `json:"id"`
	Content    string     `json:"content"`
	Type       CodeType   `json:"type"`
	Format     CodeFormat `json:"format"`
	RecordType RecordType `json:"record_type"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewCodeRecord builds an unsaved record whose type is derived from the format
func NewCodeRecord(content string, format CodeFormat, recordType RecordType) CodeRecord {
	return CodeRecord{
		Content:    content,
		Type:       format.Type(),
		Format:     format,
		RecordType: recordType,
		CreatedAt:  time.Now(),
	}
}

// Validate checks the enumerations and that format and type agree
func (r CodeRecord) Validate() error {
	if !r.Format.Valid() {
		return fmt.Errorf("invalid format %q", r.Format)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("invalid type %q", r.Type)
	}
	if !r.RecordType.Valid() {
		return fmt.Errorf("invalid record type %q", r.RecordType)
	}
	if r.Format.Type() != r.Type {
		return fmt.Errorf("format %s is %s, record says %s", r.Format, r.Format.Type(), r.Type)
	}
	return nil
}

// ScanResult is the ephemeral output of a successful decode
type ScanResult struct {
	Content string     `json:"content"`
	Type    CodeType   `json:"type"`
	Format  CodeFormat `json:"format"`
}

// CodeRecordEntity is the persisted row of a CodeRecord
type CodeRecordEntity struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Content    string `gorm:"column:content;type:text;not null"`
	Type       string `gorm:"column:type;size:32;not null"`
	Format     string `gorm:"column:format;size:32;not null"`
	RecordType string `gorm:"column:recordType;size:16;not null;index:idx_code_records_partition,priority:1"`
	CreatedAt  int64  `gorm:"column:createdAt;not null;index:idx_code_records_partition,priority:2"`
}

// TableName specifies the table name for CodeRecordEntity
func (CodeRecordEntity) TableName() string {
	return "code_records"
}

// ToDomain converts the row back into a CodeRecord
func (e CodeRecordEntity) ToDomain() (CodeRecord, error) {
	codeType, err := ParseCodeType(e.Type)
	if err != nil {
		return CodeRecord{}, err
	}
	format, err := ParseCodeFormat(e.Format)
	if err != nil {
		return CodeRecord{}, err
	}
	recordType, err := ParseRecordType(e.RecordType)
	if err != nil {
		return CodeRecord{}, err
	}
	return CodeRecord{
		ID:         e.ID,
		Content:    e.Content,
		Type:       codeType,
		Format:     format,
		RecordType: recordType,
		CreatedAt:  time.Unix(e.CreatedAt, 0).UTC(),
	}, nil
}

// CodeRecordEntityFromDomain converts a CodeRecord into its row.
// A zero CreatedAt is replaced with the current time.
func CodeRecordEntityFromDomain(r CodeRecord) CodeRecordEntity {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return CodeRecordEntity{
		ID:         r.ID,
		Content:    r.Content,
		Type:       string(r.Type),
		Format:     string(r.Format),
		RecordType: string(r.RecordType),
		CreatedAt:  createdAt.UTC().Unix(),
	}
}
