package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/model"
)

const tokenTTL = 7 * 24 * time.Hour

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	creds := new(credentials)
	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable registration parameters: %v", err))
	}

	creds.Name = strings.TrimSpace(creds.Name)
	if creds.Name == "" || creds.Email == "" || creds.Password == "" {
		return errors.RaiseBadRequestError(c, "name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("password hashing error: %v", err)
		return errors.RaiseInternalServerError(c, "registration failed")
	}

	user := &model.User{
		Id:             primitive.NewObjectID(),
		Name:           creds.Name,
		Email:          creds.Email,
		HashedPassword: string(hash),
		Role:           model.RoleUser,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.users.Insert(c.Context(), user); err != nil {
		if isErr(err, model.ErrDuplicateEmail) {
			return errors.RaiseConflictError(c, "user with this email already exists")
		}
		log.Printf("user insert error: %v", err)
		return errors.RaiseInternalServerError(c, "registration failed")
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("token signing error: %v", err)
		return errors.RaiseInternalServerError(c, "registration failed")
	}
	h.setTokenCookie(c, token, time.Now().Add(tokenTTL))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "registration successful",
		"data":    user})
}

// CreateAdmin mints an admin account. This is the bootstrap path for a fresh
// deployment: event creation is admin-gated and Register only produces the
// user role, so without it no event could ever be hosted. No session cookie
// is issued, the admin logs in normally afterwards.
func (h *Handler) CreateAdmin(c *fiber.Ctx) error {
	creds := new(credentials)
	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable admin parameters: %v", err))
	}

	creds.Name = strings.TrimSpace(creds.Name)
	if creds.Name == "" || creds.Email == "" || creds.Password == "" {
		return errors.RaiseBadRequestError(c, "name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("password hashing error: %v", err)
		return errors.RaiseInternalServerError(c, "admin creation failed")
	}

	user := &model.User{
		Id:             primitive.NewObjectID(),
		Name:           creds.Name,
		Email:          creds.Email,
		HashedPassword: string(hash),
		Role:           model.RoleAdmin,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.users.Insert(c.Context(), user); err != nil {
		if isErr(err, model.ErrDuplicateEmail) {
			return errors.RaiseConflictError(c, "user with this email already exists")
		}
		log.Printf("admin insert error: %v", err)
		return errors.RaiseInternalServerError(c, "admin creation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "admin user created successfully",
		"data":    user})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	creds := new(credentials)
	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable login parameters: %v", err))
	}

	user, err := h.users.GetByEmail(c.Context(), creds.Email)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseError(c, fiber.StatusUnauthorized, "invalid credentials", "")
		}
		log.Printf("user lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "login failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)) != nil {
		return errors.RaiseError(c, fiber.StatusUnauthorized, "invalid credentials", "")
	}

	token, err := h.issueToken(user)
	if err != nil {
		log.Printf("token signing error: %v", err)
		return errors.RaiseInternalServerError(c, "login failed")
	}
	h.setTokenCookie(c, token, time.Now().Add(tokenTTL))

	return c.JSON(fiber.Map{"status": "success", "message": "success login", "data": user})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.setTokenCookie(c, "", time.Now().Add(-time.Hour))
	return c.JSON(fiber.Map{"status": "success", "message": "logout successful", "data": nil})
}

func (h *Handler) issueToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.Id.Hex(),
		"email":  user.Email,
		"role":   string(user.Role),
		"exp":    time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func (h *Handler) setTokenCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Strict",
	})
}
