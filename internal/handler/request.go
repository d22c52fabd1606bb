package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// paymentRequest is the single canonical input contract of the payment
// endpoint.  Shapes are fixed: dates are YYYY-MM-DD strings, guests is
// a number, the two sub-objects are required.
type paymentRequest struct {
	ReservationData *reservationData `json:"reservationData" validate:"required"`
	Payment         *paymentData     `json:"payment" validate:"required"`
}

type reservationData struct {
	ItemID         uint64 `json:"itemId" validate:"required"`
	ItemType       string `json:"itemType" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
	CheckIn        string `json:"checkIn" validate:"required"`
	CheckOut       string `json:"checkOut" validate:"required"`
	Guests         uint32 `json:"guests" validate:"required,min=1"`
	SpecialRequest string `json:"specialRequest"`
}

type paymentData struct {
	CardNumber     string `json:"cardNumber" validate:"required,min=12,max=19,numeric"`
	CardHolder     string `json:"cardHolder" validate:"required"`
	Method         string `json:"method"`
	BillingAddress string `json:"billingAddress"`
}

// validate is shared across requests; field names in error reports come
// from the json tags so clients see the paths they actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// missingFields returns the json paths of every absent or malformed
// field, so a caller can fix all problems in one round trip.  An empty
// slice means the request passed validation.
func missingFields(req *paymentRequest) []string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"reservationData", "payment"}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is e.g. "paymentRequest.reservationData.checkIn"
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return fields
}
