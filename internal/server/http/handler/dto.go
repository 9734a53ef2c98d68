package handler

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/services"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// body is a decoded JSON object. Fields keep their raw JSON types so each
// parser can report its own validation code.
type body map[string]any

func readBody(c *gin.Context) (body, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, common.NewValidationError("BAD_JSON", "unreadable body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var b body
	if err := dec.Decode(&b); err != nil || b == nil {
		return nil, common.NewValidationError("BAD_JSON", "body must be a JSON object")
	}
	return b, nil
}

func (b body) has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b body) string(key string) (string, bool) {
	s, ok := b[key].(string)
	return s, ok
}

// int accepts a JSON integer or a numeric string.
func (b body) int(key string) (int64, bool) {
	switch v := b[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// bool accepts a JSON boolean, or "true"/"false" when lenient.
func (b body) bool(key string, lenient bool) (bool, bool) {
	switch v := b[key].(type) {
	case bool:
		return v, true
	case string:
		if lenient && (v == "true" || v == "false") {
			return v == "true", true
		}
	}
	return false, false
}

func bad(code, message string) error {
	return common.NewValidationError(code, message)
}

func parseCredentials(b body, minPassword int) (email, password string, err error) {
	email, ok := b.string("email")
	if !ok || !emailPattern.MatchString(strings.TrimSpace(email)) {
		return "", "", bad("BAD_EMAIL", "invalid email")
	}
	password, ok = b.string("password")
	password = strings.TrimSpace(password)
	if !ok || password == "" || len(password) < minPassword {
		if minPassword > 1 {
			return "", "", bad("BAD_PASSWORD", "password must be at least 6 characters")
		}
		return "", "", bad("BAD_PASSWORD", "password required")
	}
	return services.NormalizeEmail(email), password, nil
}

func parseRegister(b body) (services.RegisterInput, error) {
	email, password, err := parseCredentials(b, 6)
	if err != nil {
		return services.RegisterInput{}, err
	}
	in := services.RegisterInput{Email: email, Password: password}

	if b.has("nickname") {
		s, ok := b.string("nickname")
		if !ok {
			return in, bad("BAD_NICKNAME", "nickname must be a string")
		}
		in.Nickname = strings.TrimSpace(s)
	}
	if b.has("grade") {
		g, ok := b.int("grade")
		if !ok {
			return in, bad("BAD_GRADE", "grade must be an integer")
		}
		grade := int(g)
		in.Grade = &grade
	}
	if b.has("gender") {
		g, ok := b.string("gender")
		if !ok || (g != models.GenderMale && g != models.GenderFemale) {
			return in, bad("BAD_GENDER", `gender must be "Male" or "Female"`)
		}
		in.Gender = &g
	}
	return in, nil
}

func parseLogin(b body) (string, string, error) {
	return parseCredentials(b, 1)
}

func parseLogout(b body) (allDevices bool, userID *int64, err error) {
	if b.has("allDevices") {
		v, ok := b.bool("allDevices", false)
		if !ok {
			return false, nil, bad("BAD_ALL_DEVICES", "allDevices must be boolean")
		}
		allDevices = v
	}
	if b.has("userId") {
		id, ok := b.int("userId")
		if !ok {
			return false, nil, bad("BAD_USER_ID", "userId must be an integer")
		}
		userID = &id
	}
	if allDevices && userID == nil {
		return false, nil, bad("MISSING_USER_ID", "userId is required when allDevices=true")
	}
	return allDevices, userID, nil
}

// parseProfileUpdate reads a PATCH /user/me body. A null gender leaves the
// stored value unchanged.
func parseProfileUpdate(b body) (models.ProfileUpdate, error) {
	var upd models.ProfileUpdate
	if b.has("email") {
		return upd, bad("EMAIL_IMMUTABLE", "email cannot be changed")
	}
	if b.has("nickname") {
		s, ok := b.string("nickname")
		if !ok {
			return upd, bad("BAD_NICKNAME", "nickname must be a string")
		}
		upd.Nickname = &s
	}
	if b.has("grade") {
		g, ok := b.int("grade")
		if !ok || g < 0 {
			return upd, bad("BAD_GRADE", "grade must be a non-negative integer")
		}
		grade := int(g)
		upd.Grade = &grade
	}
	if b.has("gender") && b["gender"] != nil {
		g, ok := b.string("gender")
		if !ok || (g != models.GenderMale && g != models.GenderFemale) {
			return upd, bad("BAD_GENDER", `gender must be "Male" or "Female"`)
		}
		upd.Gender = &g
	}
	if b.has("is_completed") {
		v, ok := b.bool("is_completed", true)
		if !ok {
			return upd, bad("BAD_IS_COMPLETED", "is_completed must be boolean")
		}
		upd.IsCompleted = &v
	}
	return upd, nil
}

func parseUploadRequest(b body) (services.UploadRequest, error) {
	name, _ := b.string("filename")
	ct, _ := b.string("content_type")
	size, ok := b.int("size")
	if strings.TrimSpace(name) == "" || ct == "" || !ok {
		return services.UploadRequest{}, bad("BAD_UPLOAD", "filename, content_type and size required")
	}
	return services.UploadRequest{Filename: name, ContentType: ct, Size: size}, nil
}

func parseFriendRequest(b body) (int64, error) {
	id, ok := b.int("target_user_id")
	if !ok || id <= 0 {
		return 0, bad("BAD_USER_ID", "target_user_id must be a positive integer")
	}
	return id, nil
}

func parsePathID(c *gin.Context, key, code string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, bad(code, key+" must be a positive integer")
	}
	return id, nil
}
