// Package common chứa hệ thống mã lỗi, thông báo và các helper chuyển đổi lỗi dùng chung toàn service.
package common

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK        = 200 // Thành công
	StatusCreated   = 201 // Tạo mới thành công
	StatusAccepted  = 202 // Yêu cầu được chấp nhận
	StatusNoContent = 204 // Thành công nhưng không có nội dung trả về

	// Client Error Codes (4xx)
	StatusBadRequest      = 400 // Yêu cầu không hợp lệ
	StatusUnauthorized    = 401 // Chưa xác thực
	StatusForbidden       = 403 // Không có quyền truy cập
	StatusNotFound        = 404 // Không tìm thấy tài nguyên
	StatusConflict        = 409 // Xung đột dữ liệu
	StatusTooManyRequests = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
	StatusGatewayTimeout      = 504 // Gateway timeout
)

// Response Messages
const (
	MsgSuccess         = "Thao tác thành công"
	MsgBadRequest      = "Yêu cầu không hợp lệ"
	MsgNotFound        = "Không tìm thấy tài nguyên"
	MsgInternalError   = "Lỗi hệ thống"
	MsgValidationError = "Dữ liệu không hợp lệ"
	MsgDatabaseError   = "Lỗi tương tác với cơ sở dữ liệu"
	MsgInvalidFormat   = "Định dạng dữ liệu không hợp lệ"
	MsgUnavailable     = "Dữ liệu tạm thời không khả dụng"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: AGG_001)
	Category    string // Phân loại lỗi (ví dụ: Aggregation)
	SubCategory string // Phân loại con (ví dụ: Query)
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidation = ErrorCode{
		Code:        "VAL",
		Category:    "Validation",
		SubCategory: "General",
		Description: "Lỗi xác thực dữ liệu chung",
	}

	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Lỗi định dạng dữ liệu",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi cơ sở dữ liệu chung",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	// Aggregation Errors (AGG_xxx)
	ErrCodeAggregation = ErrorCode{
		Code:        "AGG_001",
		Category:    "Aggregation",
		SubCategory: "Query",
		Description: "Lỗi tính toán aggregation từ dữ liệu thô",
	}

	// Cache Errors (CACHE_xxx)
	ErrCodeWriteThrough = ErrorCode{
		Code:        "CACHE_001",
		Category:    "Cache",
		SubCategory: "WriteThrough",
		Description: "Lỗi ghi kết quả live vào materialized view (không fatal)",
	}

	ErrCodeCacheUnavailable = ErrorCode{
		Code:        "CACHE_002",
		Category:    "Cache",
		SubCategory: "Unavailable",
		Description: "Cả cache và đường live đều thất bại",
	}

	ErrCodeStaleMetadata = ErrorCode{
		Code:        "CACHE_003",
		Category:    "Cache",
		SubCategory: "Metadata",
		Description: "Metadata của view bị thiếu hoặc hỏng",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode // Mã lỗi chi tiết
	Message    string    // Thông báo lỗi
	StatusCode int       // HTTP status code
	Details    any       // Thông tin chi tiết thêm về lỗi
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Unwrap cho phép errors.Is/errors.As xuyên qua Details nếu Details là error gốc.
func (e *Error) Unwrap() error {
	if cause, ok := e.Details.(error); ok {
		return cause
	}
	return nil
}

// Is kiểm tra xem error có phải là target error không (hỗ trợ errors.Is)
func (e *Error) Is(target error) bool {
	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code && e.Message == targetErr.Message
	}
	return false
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Custom errors
var (
	// Validation Errors
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Định dạng dữ liệu không hợp lệ", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Thiếu thông tin bắt buộc", StatusBadRequest, nil)

	// Database Errors
	ErrNotFound   = NewError(ErrCodeDatabaseQuery, "Không tìm thấy dữ liệu", StatusNotFound, nil)
	ErrDuplicate  = NewError(ErrCodeDatabaseQuery, "Dữ liệu đã tồn tại", StatusConflict, nil)
	ErrConnection = NewError(ErrCodeDatabaseConnection, "Lỗi kết nối cơ sở dữ liệu", StatusServiceUnavailable, nil)

	// Cache Errors
	ErrStaleMetadata = NewError(ErrCodeStaleMetadata, "Metadata của view bị thiếu hoặc hỏng, coi như chưa từng cập nhật", StatusInternalServerError, nil)
)

// NewAggregationError tạo AggregationError cho một view kind cụ thể.
// Engine không retry — retry là trách nhiệm của caller.
func NewAggregationError(viewKind string, cause error) error {
	return NewError(
		ErrCodeAggregation,
		fmt.Sprintf("Lỗi aggregation cho view %s", viewKind),
		StatusInternalServerError,
		cause,
	)
}

// NewWriteThroughError tạo WriteThroughError — lỗi ghi write-through, không fatal với read.
func NewWriteThroughError(viewKind string, cause error) error {
	return NewError(
		ErrCodeWriteThrough,
		fmt.Sprintf("Lỗi write-through cho view %s", viewKind),
		StatusInternalServerError,
		cause,
	)
}

// NewCacheUnavailableError tạo CacheUnavailable — cả cache lẫn live đều thất bại, fatal với call.
func NewCacheUnavailableError(viewKind string, cause error) error {
	return NewError(
		ErrCodeCacheUnavailable,
		fmt.Sprintf("Cache và live fallback đều thất bại cho view %s", viewKind),
		StatusServiceUnavailable,
		cause,
	)
}

// IsAggregationError kiểm tra err có phải AggregationError không.
func IsAggregationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.Code == ErrCodeAggregation.Code
}

// IsCacheUnavailable kiểm tra err có phải CacheUnavailable không.
func IsCacheUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code.Code == ErrCodeCacheUnavailable.Code
}

// MongoDB Specific Errors
var (
	ErrMongoConnection = NewError(ErrCodeDatabaseConnection, "Lỗi kết nối MongoDB", StatusServiceUnavailable, nil)
	ErrMongoNetwork    = NewError(ErrCodeDatabaseConnection, "Lỗi mạng khi kết nối MongoDB", StatusServiceUnavailable, nil)
	ErrMongoTimeout    = NewError(ErrCodeDatabaseConnection, "Kết nối MongoDB bị timeout", StatusServiceUnavailable, nil)
	ErrMongoQuery      = NewError(ErrCodeDatabaseQuery, "Lỗi truy vấn MongoDB", StatusInternalServerError, nil)
	ErrMongoWrite      = NewError(ErrCodeDatabaseQuery, "Lỗi ghi dữ liệu MongoDB", StatusInternalServerError, nil)
	ErrMongoDuplicate  = NewError(ErrCodeDatabaseQuery, "Dữ liệu trùng lặp trong MongoDB", StatusConflict, nil)
	ErrMongoSystem     = NewError(ErrCodeDatabase, "Lỗi hệ thống MongoDB", StatusInternalServerError, nil)
)

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// Không convert ErrNotFound — giữ nguyên để caller phân biệt miss với lỗi thật
	if errors.Is(err, ErrNotFound) {
		return err
	}

	// Kiểm tra các loại lỗi MongoDB cụ thể
	var mongoErr mongo.CommandError
	if errors.As(err, &mongoErr) {
		switch {
		case mongoErr.Code >= 100 && mongoErr.Code < 200:
			return ErrMongoConnection
		case mongoErr.Code >= 300 && mongoErr.Code < 400:
			return ErrMongoQuery
		case mongoErr.Code >= 400 && mongoErr.Code < 500:
			return ErrMongoWrite
		case mongoErr.Code >= 500:
			return ErrMongoSystem
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return ErrMongoDuplicate
	}
	if mongo.IsNetworkError(err) {
		return ErrMongoNetwork
	}
	if mongo.IsTimeout(err) {
		return ErrMongoTimeout
	}

	return NewError(ErrCodeDatabase, MsgDatabaseError, StatusInternalServerError, err)
}
