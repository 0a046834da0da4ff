// Package validator 注册请求绑定使用的自定义校验标签，并将校验错误翻译为中文。
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"assessment-matrix/backend/internal/matrix"
)

var (
	levelTag  = "level"
	levelText = "{0}必须是 E、C、A 之一"

	gradeColorTag  = "grade_color"
	gradeColorText = "{0}必须是 green、yellow、red、grey 之一或 null"

	entryColorTag  = "entry_color"
	entryColorText = "{0}必须是 green、yellow、red、grey 之一"
)

var trans ut.Translator

// Setup 为 gin 默认校验器注册自定义标签与中文翻译
func Setup() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	return Register(v)
}

// Register 注册到指定的 validator 实例
func Register(v *validator.Validate) error {
	uni := ut.New(zh.New())
	trans, _ = uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return err
	}

	// 错误信息中使用 JSON 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	for _, r := range []struct {
		tag  string
		text string
		fn   validator.Func
	}{
		{levelTag, levelText, levelValidation},
		{gradeColorTag, gradeColorText, colorValidation},
		{entryColorTag, entryColorText, colorValidation},
	} {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return err
		}
		registerTranslation(v, r.tag, r.text)
	}
	return nil
}

// Translate 将校验错误转换为可读的中文描述；非校验错误返回原始信息
func Translate(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || trans == nil {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return strings.Join(msgs, "; ")
}

func registerTranslation(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ── 自定义校验 ──

func levelValidation(fl validator.FieldLevel) bool {
	return matrix.Level(fl.Field().String()).Valid()
}

// colorValidation 等级与 grey 的组合由业务层校验
func colorValidation(fl validator.FieldLevel) bool {
	return matrix.Color(fl.Field().String()).Valid()
}
