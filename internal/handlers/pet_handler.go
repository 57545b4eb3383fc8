package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peti-app/peti-server/internal/middleware"
	"github.com/peti-app/peti-server/internal/models"
	"github.com/peti-app/peti-server/internal/services"
)

// petInputFromForm reads the multipart fields; missing or malformed
// numbers stay zero and are caught by service validation.
func petInputFromForm(c *gin.Context) services.PetInput {
	atoi := func(field string) int {
		n, _ := strconv.Atoi(c.PostForm(field))
		return n
	}

	raw := c.PostFormArray("latLong")
	if len(raw) == 1 && strings.Contains(raw[0], ",") {
		raw = strings.Split(raw[0], ",")
	}
	var latLong []float64
	for _, part := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			latLong = nil
			break
		}
		latLong = append(latLong, v)
	}

	return services.PetInput{
		Name:         c.PostForm("name"),
		Type:         c.PostForm("type"),
		SpecificType: c.PostForm("specificType"),
		Sex:          c.PostForm("sex"),
		Years:        atoi("years"),
		Months:       atoi("months"),
		WeightKg:     atoi("weightKg"),
		WeightG:      atoi("weightG"),
		Bio:          c.PostForm("bio"),
		LatLong:      latLong,
		State:        c.PostForm("state"),
		City:         c.PostForm("city"),
		District:     c.PostForm("district"),
	}
}

func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}

func CreatePet(p *services.PetService, u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		owner, err := u.CurrentUser(c.Request.Context(), claims)
		if err != nil {
			fail(c, err)
			return
		}
		if owner == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		pet, err := p.Create(c.Request.Context(), owner, petInputFromForm(c), formFiles(c, "images"))
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(pet, "pet registered successfully"))
	}
}

func ListPets(p *services.PetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		sort, err := strconv.Atoi(c.DefaultQuery("sort", "-1"))
		if err != nil {
			sort = -1
		}
		search := c.Query("search")

		pets, total, err := p.List(c.Request.Context(), page, search, sort)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PaginatedResponse(pets, page, services.PageSize, total))
	}
}

func MyPets(p *services.PetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		pets, err := p.OwnerPets(c.Request.Context(), claims.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pets, ""))
	}
}

func GetPetByID(p *services.PetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.CurrentClaims(c)

		pet, isOwner, err := p.GetByID(c.Request.Context(), c.Param("id"), claims)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"pet":      pet,
			"is_owner": isOwner,
		})
	}
}

func UpdatePet(p *services.PetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		pet, err := p.Update(c.Request.Context(), c.Param("id"), claims.UserID, petInputFromForm(c), formFiles(c, "images"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pet, "pet updated successfully"))
	}
}

func DeletePet(p *services.PetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("access denied, please log in"))
			return
		}

		if err := p.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "pet removed successfully"))
	}
}
