package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peti-app/peti-server/internal/middleware"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/services"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func singleFile(c *gin.Context, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.RegisterInput

		if isMultipart(c) {
			in = services.RegisterInput{
				Name:            c.PostForm("name"),
				Email:           c.PostForm("email"),
				Phone:           c.PostForm("phone"),
				Password:        c.PostForm("password"),
				ConfirmPassword: c.PostForm("confirmpassword"),
				Image:           singleFile(c, "image"),
			}
		} else {
			var body struct {
				Name            string `json:"name"`
				Email           string `json:"email"`
				Phone           string `json:"phone"`
				Password        string `json:"password"`
				ConfirmPassword string `json:"confirmpassword"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse("invalid request body"))
				return
			}
			in = services.RegisterInput{
				Name:            body.Name,
				Email:           body.Email,
				Phone:           body.Phone,
				Password:        body.Password,
				ConfirmPassword: body.ConfirmPassword,
			}
		}

		user, err := u.Register(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(nil,
			fmt.Sprintf("a confirmation email was sent to %s, open the link in it to activate your account", user.Email)))
	}
}

func ActivateAccount(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := u.Activate(c.Request.Context(), c.Param("id"), c.Param("token"))
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil,
			fmt.Sprintf("the email %s was verified successfully, you can now log in", user.Email)))
	}
}

func Login(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse("invalid request body"))
			return
		}

		token, user, err := u.Login(c.Request.Context(), body.Email, body.Password)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "you are authenticated",
			"token":   token,
			"user_id": user.ID.Hex(),
		})
	}
}

func RequestPasswordReset(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse("invalid request body"))
			return
		}

		user, err := u.RequestPasswordReset(c.Request.Context(), body.Email)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil,
			fmt.Sprintf("a password recovery link was sent to %s", user.Email)))
	}
}

func CheckResetLink(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := u.CheckResetLink(c.Request.Context(), c.Param("id"), c.Param("token")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "fill in the fields below to update your password"))
	}
}

func ResetPassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ID              string `json:"id"`
			Token           string `json:"token"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmpassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse("invalid request body"))
			return
		}

		err := u.ResetPassword(c.Request.Context(), services.ResetPasswordInput{
			UserID:          body.ID,
			Token:           body.Token,
			Password:        body.Password,
			ConfirmPassword: body.ConfirmPassword,
		})
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "password updated successfully"))
	}
}

// CheckUser returns the current user, or null for anonymous requests.
func CheckUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.CurrentClaims(c)
		user, err := u.CurrentUser(c.Request.Context(), claims)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func GetUserByID(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := u.GetUserByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

func ToggleFavorite(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		message, err := u.ToggleFavorite(c.Request.Context(), claims.UserID, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, message))
	}
}

func GetFavorites(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		pets, err := u.Favorites(c.Request.Context(), claims.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pets, ""))
	}
}

func EditProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		var in services.EditProfileInput
		if isMultipart(c) {
			in = services.EditProfileInput{
				Name:            c.PostForm("name"),
				Phone:           c.PostForm("phone"),
				Password:        c.PostForm("password"),
				ConfirmPassword: c.PostForm("confirmpassword"),
				Image:           singleFile(c, "image"),
			}
		} else {
			var body struct {
				Name            string `json:"name"`
				Phone           string `json:"phone"`
				Password        string `json:"password"`
				ConfirmPassword string `json:"confirmpassword"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse("invalid request body"))
				return
			}
			in = services.EditProfileInput{
				Name:            body.Name,
				Phone:           body.Phone,
				Password:        body.Password,
				ConfirmPassword: body.ConfirmPassword,
			}
		}

		user, err := u.EditProfile(c.Request.Context(), claims.UserID, in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "user updated successfully"))
	}
}
