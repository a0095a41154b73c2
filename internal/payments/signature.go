package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// SignatureHeader carries the IPN signature.
const SignatureHeader = "x-nowpayments-sig"

var ErrBadSignature = errors.New("nowpayments: bad ipn signature")

// VerifyIPNSignature checks an IPN callback.  NOWPayments signs the JSON
// body re-serialized with its keys sorted, using HMAC-SHA512 keyed with the
// IPN secret, and sends the hex digest in SignatureHeader.
func VerifyIPNSignature(body []byte, sigHex, secret string) error {
	if secret == "" || sigHex == "" {
		return ErrBadSignature
	}
	want, err := hex.DecodeString(strings.TrimSpace(sigHex))
	if err != nil {
		return ErrBadSignature
	}
	canon, err := canonicalJSON(body)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canon)
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrBadSignature
	}
	return nil
}

// SignIPN produces the signature NOWPayments would send for body.
func SignIPN(body []byte, secret string) (string, error) {
	canon, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canon)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// canonicalJSON re-encodes body with object keys sorted at every level.
// Numbers keep their original text.
func canonicalJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IPN is the part of a callback the order lifecycle consumes.
type IPN struct {
	PaymentID     FlexString `json:"payment_id"`
	PaymentStatus string     `json:"payment_status"`
	OrderID       string     `json:"order_id"`
	PayAddress    string     `json:"pay_address"`
	PayAmount     FlexString `json:"pay_amount"`
	PayCurrency   string     `json:"pay_currency"`
}

// ParseIPN decodes a callback body.
func ParseIPN(body []byte) (IPN, error) {
	var ipn IPN
	err := json.Unmarshal(body, &ipn)
	return ipn, err
}
