package validator

import (
	"errors"
	"regexp"
	"strings"

	"storefront/internal/domain/model"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// オーナーキーが不正
	ErrInvalidOwnerKey = errors.New("invalid owner key")
)

var validate *validator.Validate

var translator ut.Translator

func init() {
	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check は構造体のvalidateタグを検証し、最初のエラーを英語の文にして返す。
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		if len(verrors) < 1 {
			return nil
		}

		return errors.New(verrors[0].Translate(translator))
	}

	return nil
}

// スナップショットの検証（タグ＋価格が0以上か）
func CheckSnapshot(s model.ProductSnapshot) error {
	if err := Check(s); err != nil {
		return err
	}
	if !s.HasValidPrices() {
		return errors.New("price must be 0 or greater")
	}
	return nil
}

// オーナーキーは メール or guest_xxx
func CheckOwnerKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 320 {
		return ErrInvalidOwnerKey
	}
	if model.IsGuestOwnerKey(key) {
		return nil
	}
	if !isEmailLike(key) {
		return ErrInvalidOwnerKey
	}
	return nil
}

var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailLike.MatchString(s)
}
