package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Category は合成エラーの分類を表す
type Category int

const (
	CategoryNone Category = iota
	CategoryDivisionByZero
	CategoryKeyError
	CategoryTypeError
	CategoryValidation
	CategoryBusinessLogic
	CategoryUserNotFound
	CategoryPayment
	CategoryExternalAPI
	CategoryDBTimeout
	CategorySlowQuery
	CategoryTransport
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryDivisionByZero:
		return "division_by_zero"
	case CategoryKeyError:
		return "key_error"
	case CategoryTypeError:
		return "type_error"
	case CategoryValidation:
		return "validation"
	case CategoryBusinessLogic:
		return "business_logic"
	case CategoryUserNotFound:
		return "user_not_found"
	case CategoryPayment:
		return "payment"
	case CategoryExternalAPI:
		return "external_api"
	case CategoryDBTimeout:
		return "db_timeout"
	case CategorySlowQuery:
		return "slow_query"
	case CategoryTransport:
		return "transport"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Categories は合成可能な全カテゴリを返す
func Categories() []Category {
	return []Category{
		CategoryDivisionByZero,
		CategoryKeyError,
		CategoryTypeError,
		CategoryValidation,
		CategoryBusinessLogic,
		CategoryUserNotFound,
		CategoryPayment,
		CategoryExternalAPI,
		CategoryDBTimeout,
		CategorySlowQuery,
	}
}

// ParseCategory は文字列からカテゴリをパースする
func ParseCategory(s string) (Category, bool) {
	for c := CategoryDivisionByZero; c <= CategoryInternal; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return CategoryNone, false
}

// Error はカテゴリ付きのエラー値
type Error struct {
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// New は新しいカテゴリ付きエラーを作成する
func New(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Classify はエラーをカテゴリに分類する
// fault.Error 以外のエラーはトランスポート障害か内部エラーとして扱う
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransport
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return CategoryTransport
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return CategoryTransport
	}

	return CategoryInternal
}

// Trigger は指定カテゴリの代表的なエラーを合成する
// デモ用エンドポイントとインプロセス実行の両方から使われる
func Trigger(category Category) error {
	switch category {
	case CategoryDivisionByZero:
		_, err := safeDivide(10, 0)
		return err
	case CategoryKeyError:
		data := map[string]string{"name": "test"}
		if _, ok := data["email"]; !ok {
			return New(CategoryKeyError, "key 'email' not found")
		}
		return nil
	case CategoryTypeError:
		if _, err := strconv.Atoi("not-a-number"); err != nil {
			return New(CategoryTypeError, "cannot convert string to int: %v", err)
		}
		return nil
	case CategoryValidation:
		return ValidateEmail("invalid-email")
	case CategoryBusinessLogic:
		return New(CategoryBusinessLogic, "random business logic error")
	case CategoryUserNotFound:
		return New(CategoryUserNotFound, "user with ID 99999 not found")
	case CategoryPayment:
		return New(CategoryPayment, "payment gateway temporarily unavailable")
	case CategoryExternalAPI:
		return New(CategoryExternalAPI, "HTTP error 500 from upstream")
	case CategoryDBTimeout:
		return New(CategoryDBTimeout, "database connection lost")
	case CategorySlowQuery:
		return New(CategorySlowQuery, "query exceeded deadline")
	case CategoryTransport:
		return New(CategoryTransport, "connection refused")
	case CategoryInternal:
		return New(CategoryInternal, "internal invariant violation")
	default:
		return nil
	}
}

// safeDivide はゼロ除算をエラー値として返す
func safeDivide(a, b int) (int, error) {
	if b == 0 {
		return 0, New(CategoryDivisionByZero, "integer division by zero")
	}
	return a / b, nil
}

// ValidateEmail はメールアドレス形式を検証する
func ValidateEmail(email string) error {
	if email == "" {
		return New(CategoryValidation, "email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return New(CategoryValidation, "invalid email format: %s", email)
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return New(CategoryValidation, "invalid email format: %s", email)
	}
	return nil
}
