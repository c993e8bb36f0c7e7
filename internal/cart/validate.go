package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StartRequest is the payload of POST /session.
type StartRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddItemRequest is the payload of POST /session/items.
type AddItemRequest struct {
	Item     string   `json:"item"`
	Quantity Quantity `json:"quantity" validate:"required"`
}

// Quantity accepts a JSON number or a numeric string.
type Quantity string

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*q = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		*q = Quantity(n.String())
	}
	return nil
}

// ParseCustomerName trims raw and rejects blank names.
func ParseCustomerName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if err := validate.Struct(StartRequest{Name: name}); err != nil {
		return "", fmt.Errorf("customer name: %w", ErrInvalidInput)
	}
	return name, nil
}

// ParseQuantity converts raw into an integer. Positivity is checked by the
// cart itself so the session state is consulted first.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("quantity is required: %w", ErrInvalidQuantity)
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a whole number: %w", raw, ErrInvalidQuantity)
	}
	return qty, nil
}

// ParseIndex converts a path segment into a line position.
func ParseIndex(raw string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", raw, ErrIndexOutOfRange)
	}
	return idx, nil
}

// ValidateAddItem checks the payload and returns the typed item key and quantity.
func ValidateAddItem(req AddItemRequest) (string, int, error) {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				if fe.Field() == "Quantity" {
					return "", 0, fmt.Errorf("quantity: %w", ErrInvalidQuantity)
				}
			}
			return "", 0, fmt.Errorf("item: %w", ErrItemNotFound)
		}
		return "", 0, err
	}
	qty, err := ParseQuantity(string(req.Quantity))
	if err != nil {
		return "", 0, err
	}
	return req.Item, qty, nil
}

// DecodeStart reads a StartRequest from a JSON or form body.
func DecodeStart(r *http.Request) (StartRequest, error) {
	var req StartRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return req, badPayload(err)
		}
		req.Name = r.PostForm.Get("name")
		return req, nil
	}
	return req, decodeJSON(r, &req)
}

// DecodeAddItem reads an AddItemRequest from a JSON or form body.
func DecodeAddItem(r *http.Request) (AddItemRequest, error) {
	var req AddItemRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return req, badPayload(err)
		}
		req.Item = r.PostForm.Get("item")
		req.Quantity = Quantity(r.PostForm.Get("quantity"))
		return req, nil
	}
	return req, decodeJSON(r, &req)
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return badPayload(io.EOF)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badPayload(err)
	}
	return nil
}

func badPayload(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.NewAppError("PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge, err)
	}
	return common.BadRequest("BAD_REQUEST", "invalid request payload", err)
}
