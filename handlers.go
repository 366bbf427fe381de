package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"noiportal/models"
	"noiportal/pkg/noi"
)

func setupRoutes(r *gin.Engine) {
	if authEnabled() {
		r.POST("/register", registerHandler)
		r.POST("/login", loginHandler)
		r.POST("/refresh", refreshHandler)
		r.POST("/revoke_refresh", revokeRefreshHandler)
	}
	group := r.Group("")
	if authEnabled() {
		group.Use(jwtAuthMiddleware())
		group.GET("/me", meHandler)
	}
	group.POST("/notes", createNoteHandler)
	group.GET("/notes", listNotesHandler)
	group.GET("/notes/types", noteTypesHandler)
	group.GET("/notes/:serial/attachment", getAttachmentHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// submitterFromContext returns the verified submitter identity, or "" in an
// unauthenticated (flat-log) deployment.
func submitterFromContext(c *gin.Context) string {
	v, _ := c.Get("username")
	s, _ := v.(string)
	return s
}

// noteResponse is the wire shape of a credit-note record.
type noteResponse struct {
	SerialNo     string `json:"serial_no"`
	Date         string `json:"date"`
	SupplierCode string `json:"supplier_code"`
	SupplierName string `json:"supplier_name"`
	InvoiceRef   string `json:"invoice_ref"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
	Comment      string `json:"comment,omitempty"`
	InvoiceFile  string `json:"invoice_file"`
	SubmittedAt  string `json:"submitted_at"`
	SubmittedBy  string `json:"submitted_by,omitempty"`
}

func toNoteResponse(rec noi.Record) noteResponse {
	return noteResponse{
		SerialNo:     rec.SerialNo,
		Date:         rec.Date.Format(noi.DateLayout),
		SupplierCode: rec.SupplierCode,
		SupplierName: rec.SupplierName,
		InvoiceRef:   rec.InvoiceRef,
		Amount:       noi.FormatAmount(rec.AmountCents),
		Type:         string(rec.Type),
		Comment:      rec.Comment,
		InvoiceFile:  rec.InvoiceFile,
		SubmittedAt:  rec.SubmittedAt.UTC().Format(time.RFC3339),
		SubmittedBy:  rec.SubmittedBy,
	}
}

// createNoteHandler accepts one multipart form submission and runs it through
// the coordinator. Type checks (date format, amount syntax, enum membership)
// happen here; business validation is the coordinator's job and its errors
// come back as one list.
func createNoteHandler(c *gin.Context) {
	dateStr := c.PostForm("date")
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if dateStr != "" {
		var err error
		date, err = time.Parse(noi.DateLayout, dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	amountCents := int64(0)
	if amtStr := c.PostForm("amount"); amtStr != "" {
		var err error
		amountCents, err = noi.ParseAmount(amtStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative decimal"})
			return
		}
	}

	noteType := c.PostForm("type")
	if noteType != "" && !noi.ValidNoteType(noteType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document type"})
		return
	}

	sub := noi.Submission{
		Date:         date,
		SupplierCode: c.PostForm("supplier_code"),
		SupplierName: c.PostForm("supplier_name"),
		InvoiceRef:   c.PostForm("invoice_ref"),
		AmountCents:  amountCents,
		Type:         noi.NoteType(noteType),
		Comment:      c.PostForm("comment"),
		SubmittedBy:  submitterFromContext(c),
	}

	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > cfg.Uploads.MaxBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
			return
		}
		sub.Attachment = &noi.Attachment{
			OriginalName: fh.Filename,
			ContentType:  fh.Header.Get("Content-Type"),
			Data:         data,
		}
	}

	result, err := coordinator.Submit(sub)
	if err != nil {
		var verrs noi.ValidationErrors
		var aerr *noi.AttachmentWriteError
		switch {
		case errors.As(err, &verrs):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs.Messages()})
		case errors.As(err, &aerr) && aerr.SerialNo != "":
			// row committed, file missing: report the serial so the entry is
			// not resubmitted, but flag the degraded state
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "record saved but attachment storage failed; contact an administrator",
				"serial_no": aerr.SerialNo,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"serial_no": result.SerialNo, "invoice_file": result.InvoiceFile})
}

// listNotesHandler returns the most recent submissions, oldest first within
// the window (default 10, the portal's read-back view).
func listNotesHandler(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}
	recs, err := store.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]noteResponse, len(recs))
	for i, rec := range recs {
		out[i] = toNoteResponse(rec)
	}
	c.JSON(http.StatusOK, out)
}

func noteTypesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, noi.NoteTypes)
}

// getAttachmentHandler serves a stored invoice file by its serial number.
func getAttachmentHandler(c *gin.Context) {
	serial := c.Param("serial")
	name, ok := attachments.Find(serial)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
		return
	}
	c.FileAttachment(attachments.Path(name), name)
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Register(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(user, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// signAccessToken issues an HS256 token carrying username and resolved role.
func signAccessToken(user models.User, ttl time.Duration) (string, error) {
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	rt := models.RefreshToken{UserID: userID, TokenHash: hex.EncodeToString(h[:]), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", hex.EncodeToString(h[:])).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(user, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate: revoke the presented token and issue a fresh one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
