package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultWidgetMaxAge: максимальный возраст auth_date от Login Widget.
	DefaultWidgetMaxAge = 24 * time.Hour

	// maxClockSkew bounds how far auth_date may sit in the future.
	maxClockSkew = time.Minute
)

var (
	ErrWidgetMalformed = errors.New("malformed widget data")
	ErrWidgetHash      = errors.New("invalid hash: data integrity check failed")
	ErrWidgetExpired   = errors.New("widget data expired")
)

// ValidateTelegramLoginWidget checks data sent by the Telegram Login Widget.
// https://core.telegram.org/widgets/login#checking-authorization
//
// fields must hold every received field including "hash" and nothing the widget
// did not send. maxAge <= 0 means DefaultWidgetMaxAge.
func ValidateTelegramLoginWidget(fields map[string]string, botToken string, maxAge time.Duration, now time.Time) error {
	if maxAge <= 0 {
		maxAge = DefaultWidgetMaxAge
	}

	receivedHash := fields["hash"]
	if receivedHash == "" {
		return fmt.Errorf("%w: hash is missing", ErrWidgetMalformed)
	}

	authDateStr := fields["auth_date"]
	if authDateStr == "" {
		return fmt.Errorf("%w: auth_date is missing", ErrWidgetMalformed)
	}
	authDateUnix, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: auth_date is not a valid unix timestamp", ErrWidgetMalformed)
	}

	// Hash first: freshness of forged data is irrelevant.
	if !hmac.Equal([]byte(widgetHash(fields, botToken)), []byte(receivedHash)) {
		return ErrWidgetHash
	}

	authDate := time.Unix(authDateUnix, 0)
	if age := now.Sub(authDate); age > maxAge {
		return fmt.Errorf("%w: auth_date is %s old (max %s)", ErrWidgetExpired, age.Round(time.Second), maxAge)
	}
	if authDate.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("%w: auth_date is in the future", ErrWidgetMalformed)
	}

	return nil
}

// widgetHash: HMAC-SHA256(SHA256(bot_token), data_check_string), hex.
func widgetHash(fields map[string]string, botToken string) string {
	pairs := make([]string, 0, len(fields))
	for key, v := range fields {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+v)
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretKey := sha256.Sum256([]byte(botToken))
	return hex.EncodeToString(hmacSHA256(secretKey[:], []byte(dataCheckString)))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
