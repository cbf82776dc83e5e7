package http

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coreseed/internal/auth"
	"coreseed/internal/domain"
	"coreseed/internal/identity"
	"coreseed/internal/service"
	"coreseed/internal/storage"
)

const avatarURLValidity = 15 * time.Minute

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	profiles  service.ProfileService
	settings  service.SettingService
	storage   storage.Service
	signer    *auth.Signer
	bucket    string
	keyPrefix string
}

func NewHandler(users service.UserService, profiles service.ProfileService, settings service.SettingService, store storage.Service, signer *auth.Signer, bucket, keyPrefix string) *Handler {
	return &Handler{
		users:     users,
		profiles:  profiles,
		settings:  settings,
		storage:   store,
		signer:    signer,
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}

	authorized := api.Group("")
	authorized.Use(h.authMiddleware())
	{
		authorized.GET("/users", h.requirePrivilege(identity.PrivilegeUserRead), h.listUsers)
		authorized.POST("/users", h.requirePrivilege(identity.PrivilegeUserCreate), h.createUser)
		authorized.PUT("/users/:username", h.requirePrivilege(identity.PrivilegeUserUpdate), h.updateUser)
		authorized.DELETE("/users/:username", h.requirePrivilege(identity.PrivilegeUserDelete), h.deleteUser)
		authorized.POST("/users/:username/avatar", h.requirePrivilege(identity.PrivilegeUserUpdate), h.uploadAvatar)
		authorized.GET("/users/:username/avatar", h.requirePrivilege(identity.PrivilegeUserRead), h.avatarURL)

		authorized.GET("/privileges", h.requirePrivilege(identity.PrivilegeRoleRead), h.listPrivileges)

		authorized.GET("/profiles", h.requirePrivilege(identity.PrivilegeRoleRead), h.listProfiles)
		authorized.GET("/profiles/:id", h.requirePrivilege(identity.PrivilegeRoleRead), h.getProfile)
		authorized.POST("/profiles", h.requirePrivilege(identity.PrivilegeRoleCreate), h.createProfile)
		authorized.PUT("/profiles/:id", h.requirePrivilege(identity.PrivilegeRoleUpdate), h.updateProfile)
		authorized.DELETE("/profiles/:id", h.requirePrivilege(identity.PrivilegeRoleDelete), h.deleteProfile)

		authorized.GET("/settings", h.requirePrivilege(identity.PrivilegeSetting), h.listSettings)
		authorized.PUT("/settings/:name", h.requirePrivilege(identity.PrivilegeSetting), h.putSetting)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

const claimsKey = "claims"

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := h.signer.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) requirePrivilege(privilege string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get(claimsKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims := value.(*auth.Claims)
		for _, role := range claims.Roles {
			if role == privilege || role == identity.PrivilegeAdministration {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Username: result.Username, Token: result.Token})
}

type createUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phoneNumber"`
	ProfileID int64  `json:"profileId"`
}

type updateUserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phoneNumber"`
	ProfileID int64  `json:"profileId"`
	Password  string `json:"password"`
}

type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phoneNumber"`
	Picture     string `json:"picture"`
	ProfileID   int64  `json:"profileId"`
	ProfileName string `json:"profileName"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.users.Register(c.Request.Context(), service.RegisterParams{
		Username:  req.Username,
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		ProfileID: req.ProfileID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "username": req.Username})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.users.Update(c.Request.Context(), service.UpdateParams{
		Username:    c.Param("username"),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ProfileID:   req.ProfileID,
		NewPassword: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": c.Param("username")})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("username")})
}

func (h *Handler) listUsers(c *gin.Context) {
	summaries, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(summaries))
	for i := range summaries {
		resp[i] = summaryToResponse(summaries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listPrivileges(c *gin.Context) {
	c.JSON(http.StatusOK, h.users.Privileges())
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		writeError(c, domain.ErrStorageNotConfigured)
		return
	}

	username := c.Param("username")
	if _, err := h.users.Get(c.Request.Context(), username); err != nil {
		writeError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := uuid.NewString() + path.Ext(fileHeader.Filename)
	if prefix := strings.Trim(h.keyPrefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	location, err := h.storage.PutObject(c.Request.Context(), file, storage.PutOptions{
		Bucket:      h.bucket,
		Key:         key,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.SetPicture(c.Request.Context(), username, location); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"picture": location})
}

func (h *Handler) avatarURL(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		writeError(c, domain.ErrStorageNotConfigured)
		return
	}

	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	if user.Picture == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no avatar set"})
		return
	}

	key, err := extractS3Key(user.Picture, h.bucket)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	url, err := h.storage.GetObjectURL(c.Request.Context(), h.bucket, key, avatarURLValidity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

type profileRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Privileges  []string `json:"privileges"`
}

type ProfileResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Privileges  []string `json:"privileges"`
	Locked      bool     `json:"locked"`
	Hidden      bool     `json:"hidden"`
}

func (h *Handler) createProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.profiles.Create(c.Request.Context(), req.Name, req.Description, req.Privileges)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) getProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.Find(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileToResponse(*profile))
}

func (h *Handler) listProfiles(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]ProfileResponse, len(profiles))
	for i := range profiles {
		resp[i] = profileToResponse(profiles[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.Update(c.Request.Context(), id, req.Name, req.Description, req.Privileges); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) deleteProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.profiles.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type SettingResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type putSettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) listSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]SettingResponse, len(settings))
	for i := range settings {
		resp[i] = SettingResponse{Name: settings[i].Name, Value: settings[i].Value}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) putSetting(c *gin.Context) {
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settings.Put(c.Request.Context(), c.Param("name"), req.Value); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": c.Param("name")})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func summaryToResponse(s domain.UserSummary) UserResponse {
	return UserResponse{
		ID:          s.ID,
		Username:    s.Username,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Picture:     s.Picture,
		ProfileID:   s.ProfileID,
		ProfileName: s.ProfileName,
	}
}

func profileToResponse(p domain.Profile) ProfileResponse {
	privileges := p.Privileges
	if privileges == nil {
		privileges = []string{}
	}
	return ProfileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Privileges:  privileges,
		Locked:      p.Locked,
		Hidden:      p.Hidden,
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var registrationErr *domain.RegistrationError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &registrationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProfileExists),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrProfileInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStorageNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func extractS3Key(location, bucket string) (string, error) {
	if !strings.HasPrefix(location, "s3://") {
		return "", fmt.Errorf("invalid s3 location")
	}
	rest := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid s3 location")
	}
	if bucket != "" && parts[0] != bucket {
		return "", fmt.Errorf("s3 bucket mismatch")
	}
	return parts[1], nil
}
