package dashboard

import (
	"context"
	"net/http"
	"strconv"

	"procurement/internal/client"
	"procurement/internal/lifecycle"

	"github.com/gin-gonic/gin"
)

func (h *Handler) screens(c *gin.Context) *lifecycle.Screens {
	return lifecycle.New(session(c), h.cache)
}

func (h *Handler) Quotations(c *gin.Context) {
	p, err := listParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.screens(c).Quotations(c.Request.Context(), c.Param("id"), c.Query("status"), p)
	if err != nil {
		fail(c, err)
		return
	}
	hideUnpermitted(c, list.Rows)
	c.JSON(http.StatusOK, list)
}

// hideUnpermitted turns off row actions the user could not run anyway
func hideUnpermitted(c *gin.Context, rows []lifecycle.QuotationRow) {
	perms := permsOf(c)
	for i := range rows {
		a := &rows[i].Actions
		if !perms.Has("update_quotation") {
			a.Accept, a.Reject = false, false
		}
		a.Evaluate = a.Evaluate && perms.Has("evaluate_quotation")
		a.Shortlist = a.Shortlist && perms.Has("shortlist_evaluation")
		a.Award = a.Award && perms.Has("award_quotation")
	}
}

func (h *Handler) Evaluations(c *gin.Context) {
	p, err := listParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	shortlisted, _ := strconv.ParseBool(c.DefaultQuery("shortlisted", "false"))
	list, err := h.screens(c).Evaluations(c.Request.Context(), c.Param("id"), shortlisted, p)
	if err != nil {
		fail(c, err)
		return
	}
	perms := permsOf(c)
	for i := range list.Rows {
		list.Rows[i].CanShortlist = list.Rows[i].CanShortlist && perms.Has("shortlist_evaluation")
		list.Rows[i].CanAward = list.Rows[i].CanAward && perms.Has("award_quotation")
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Accept(c *gin.Context) {
	h.quotationAction(c, "Quotation accepted", (*lifecycle.Screens).Accept)
}

func (h *Handler) Reject(c *gin.Context) {
	h.quotationAction(c, "Quotation rejected", (*lifecycle.Screens).Reject)
}

func (h *Handler) Award(c *gin.Context) {
	h.quotationAction(c, "Quotation awarded", (*lifecycle.Screens).Award)
}

func (h *Handler) quotationAction(c *gin.Context, msg string, run func(*lifecycle.Screens, context.Context, string) (client.Quotation, error)) {
	q, err := run(h.screens(c), c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotation": q, "message": msg})
}

func (h *Handler) Evaluate(c *gin.Context) {
	var f lifecycle.ScoresForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scores must be whole numbers"})
		return
	}
	res, err := h.screens(c).Evaluate(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Shortlist(c *gin.Context) {
	e, err := h.screens(c).Shortlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": e, "message": "Evaluation shortlisted"})
}
