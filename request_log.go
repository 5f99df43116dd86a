package main

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/erc7824/walletbridge/pkg/chainclient"
	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// RequestRecord represents one dispatched request in the database.
type RequestRecord struct {
	ID         uint           `gorm:"primaryKey"`
	ConnID     string         `gorm:"column:conn_id;type:varchar(255);not null"`
	ReqID      uint64         `gorm:"column:req_id;not null"`
	Method     string         `gorm:"column:method;type:varchar(255);not null"`
	Params     datatypes.JSON `gorm:"column:params"`
	Result     datatypes.JSON `gorm:"column:result"`
	ErrorCode  int            `gorm:"column:error_code;not null;default:0"`
	ErrorMsg   string         `gorm:"column:error_msg;type:text"`
	Value      string         `gorm:"column:value;type:varchar(78)"`
	DurationMs int64          `gorm:"column:duration_ms;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for the RequestRecord model
func (RequestRecord) TableName() string {
	return "request_log"
}

// RequestStore handles request log storage and retrieval
type RequestStore struct {
	db *gorm.DB
}

// NewRequestStore creates a new RequestStore instance
func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

// StoreRequest stores a dispatched request together with its outcome.
// Value transfers carried by eth_sendTransaction are denormalized into the
// value column in KLAY for reporting queries.
func (s *RequestStore) StoreRequest(connID string, req jsonrpc.Request, res jsonrpc.Response, duration time.Duration) error {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}

	record := &RequestRecord{
		ConnID:     connID,
		ReqID:      req.ID,
		Method:     req.Method,
		Params:     paramsBytes,
		Value:      transferValue(req),
		DurationMs: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if res.Error != nil {
		record.ErrorCode = res.Error.Code
		record.ErrorMsg = res.Error.Message
	} else if res.Result != nil {
		resultBytes, err := json.Marshal(res.Result)
		if err != nil {
			return err
		}
		record.Result = resultBytes
	}

	return s.db.Create(record).Error
}

// GetHistory retrieves the request history of a connection, newest first.
func (s *RequestStore) GetHistory(connID string, limit int) ([]RequestRecord, error) {
	var history []RequestRecord
	query := s.db.Where("conn_id = ?", connID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&history).Error
	return history, err
}

// transferValue extracts the native value of a send-transaction request as
// a decimal KLAY amount. Empty for other methods and malformed values.
func transferValue(req jsonrpc.Request) string {
	if req.Method != "eth_sendTransaction" {
		return ""
	}

	params := jsonrpc.PositionalParams(req.Params)
	if len(params) == 0 {
		return ""
	}
	tx, ok := params[0].(map[string]any)
	if !ok {
		return ""
	}
	hexValue, ok := tx["value"].(string)
	if !ok || hexValue == "" {
		return ""
	}

	amount, err := chainclient.FormatKLAY(hexValue)
	if err != nil {
		return ""
	}
	return amount.String()
}
