package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

// Ограничения полей совпадают со схемой удалённого API.
const (
	MaxNameLength             = 100
	MinPasswordLength         = 6
	MaxItemLength             = 200
	MaxDropoffLength          = 200
	MaxInstructionsLength     = 500
	MaxLocationLength         = 100
	MaxTimeLength             = 50
	MaxPickupCapabilityLength = 200
	MaxContactLength          = 20
	MaxNotesLength            = 500
	MaxTxnIDLength            = 100
	MaxBankFieldLength        = 100
	MaxMessageLength          = 2000
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	local, domain := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 || !emailLocalRegex.MatchString(local) {
		return fmt.Errorf("локальная часть email имеет некорректный формат")
	}
	if len(domain) == 0 || len(domain) > 255 || !emailDomainRegex.MatchString(domain) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

func required(fieldName, value string, max int) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), 0, max)
}

func optional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// first возвращает первую ошибку как ошибку валидации приложения.
func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

func ValidateRegistration(in entity.Registration) error {
	return first(
		required("name", in.Name, MaxNameLength),
		ValidateEmail(in.Email),
		ValidateLength("password", in.Password, MinPasswordLength, 0),
	)
}

func ValidateCredentials(in entity.Credentials) error {
	return first(
		ValidateEmail(in.Email),
		ValidateNonEmpty("password", in.Password),
	)
}

func ValidateOrderInput(in entity.CreateOrderInput) error {
	return first(
		required("item", in.Item, MaxItemLength),
		required("dropoff_location", in.DropoffLocation, MaxDropoffLength),
		optional("instructions", in.Instructions, MaxInstructionsLength),
	)
}

func ValidateOfferInput(in entity.OfferInput) error {
	var charge error
	if in.DeliveryCharge != nil && *in.DeliveryCharge < 0 {
		charge = fmt.Errorf("delivery_charge не может быть отрицательным")
	}
	return first(
		required("current_location", in.CurrentLocation, MaxLocationLength),
		required("destination", in.Destination, MaxLocationLength),
		required("arrival_time", in.ArrivalTime, MaxTimeLength),
		required("pickup_capability", in.PickupCapability, MaxPickupCapabilityLength),
		required("contact_number", in.ContactNumber, MaxContactLength),
		required("estimated_delivery_time", in.EstimatedDeliveryTime, MaxTimeLength),
		optional("notes", in.Notes, MaxNotesLength),
		charge,
	)
}

func ValidatePayoutDetails(in entity.PayoutDetails) error {
	return first(
		required("bank_name", in.BankName, MaxBankFieldLength),
		required("account_number", in.AccountNumber, MaxBankFieldLength),
		required("account_title", in.AccountTitle, MaxBankFieldLength),
	)
}

func ValidateTxnID(txnID string) error {
	return first(required("txn_id", txnID, MaxTxnIDLength))
}

func ValidateMessage(content string) error {
	return first(required("content", content, MaxMessageLength))
}
