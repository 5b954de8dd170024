package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/taskconsole/domain"
)

// PolicyHandlers exposes the console's route permissions to admins
type PolicyHandlers struct{ svc domain.PolicyService }

// NewPolicyHandlers creates policy handlers
func NewPolicyHandlers(svc domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{svc: svc}
}

type policyReq struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	policies := h.svc.GetPolicies()
	if policies == nil {
		policies = [][]string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": policies})
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.svc.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, "policy_add", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.svc.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, "policy_remove", err)
		return
	}
	c.Status(http.StatusNoContent)
}
