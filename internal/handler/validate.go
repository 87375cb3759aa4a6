package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate はリクエストDTOの検証器。バリデーションルールはstructタグで宣言する。
var validate = validator.New(validator.WithRequiredStructEnabled())

// signupRequest はユーザー登録リクエストのボディ。
type signupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// refreshRequest はトークン再発行リクエストのボディ。
type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// createMovieRequest は映画登録リクエストのボディ。
type createMovieRequest struct {
	Title    string  `json:"title" validate:"required"`
	Year     *string `json:"year" validate:"omitempty,len=4,numeric"`
	ImageURL string  `json:"imageUrl" validate:"omitempty,url"`
}

// updateMovieRequest は映画更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateMovieRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1"`
	Year     *string `json:"year" validate:"omitempty,len=4,numeric"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

// validateStruct はDTOを検証し、違反があればフィールド名をキーとした
// 日本語メッセージのマップを返す。違反が無ければnilを返す。
func validateStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{"request": "リクエストの検証に失敗しました。"}
	}

	details := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		details[fieldName(fe)] = fieldMessage(fe)
	}
	return details
}

// fieldName は違反フィールドのJSONキー名を返す。
func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "RefreshToken":
		return "refreshToken"
	case "Title":
		return "title"
	case "Year":
		return "year"
	case "ImageURL":
		return "imageUrl"
	default:
		return fe.Field()
	}
}

// fieldMessage は違反タグに応じた日本語メッセージを返す。
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です。"
	case "email":
		return "メールアドレスの形式が正しくありません。"
	case "min":
		return fmt.Sprintf("%s文字以上で入力してください。", fe.Param())
	case "max":
		return fmt.Sprintf("%s文字以下で入力してください。", fe.Param())
	case "len":
		return fmt.Sprintf("%s文字で入力してください。", fe.Param())
	case "numeric":
		return "数字で入力してください。"
	case "url":
		return "URLの形式が正しくありません。"
	default:
		return "入力値が不正です。"
	}
}
