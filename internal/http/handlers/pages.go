package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/guard"
	"github.com/you/taskconsole/internal/http/middleware"
)

type link struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

var areaLinks = map[domain.Role][]link{
	domain.RoleAdmin: {
		{Title: "Users", Href: guard.AdminHomePath + "/users"},
		{Title: "Tasks", Href: guard.AdminHomePath + "/tasks"},
		{Title: "Policies", Href: guard.AdminHomePath + "/policies"},
	},
	domain.RoleUser: {
		{Title: "My tasks", Href: guard.UserHomePath + "/tasks"},
	},
}

// PageHandlers renders the role areas. They only run behind the guard.
type PageHandlers struct{}

func NewPageHandlers() *PageHandlers { return &PageHandlers{} }

// Home describes the area landing page for the signed-in role
func (h *PageHandlers) Home(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s == nil {
		c.Redirect(http.StatusFound, guard.LoginPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"page":  string(s.Role) + "_home",
			"user":  sessionView(s),
			"links": areaLinks[s.Role],
		},
	})
}

// SubPage serves /<area>/:page for pages linked from the area home
func (h *PageHandlers) SubPage(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s == nil {
		c.Redirect(http.StatusFound, guard.LoginPath)
		return
	}
	page := c.Param("page")
	for _, l := range areaLinks[s.Role] {
		if l.Href == c.Request.URL.Path {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"page": page, "user": sessionView(s)}})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Page not found", "code": "NOT_FOUND"})
}
