package handlers

import (
	"net/http"

	"safescan/internal/models"
	"safescan/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct{}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{}
}

type voteRequest struct {
	Barcode      string `json:"barcode" binding:"required"`
	VoteType     string `json:"vote_type" binding:"required"`
	Fingerprint  string `json:"fingerprint" binding:"required"`
	ProductName  string `json:"product_name"`
	ProductBrand string `json:"product_brand"`
}

// Record 记录一次众筹投票（搜索/扫码/会员扫码）
func (h *VoteHandler) Record(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "barcode, vote_type and fingerprint are required")
		return
	}

	var meta *services.VoteMeta
	if req.ProductName != "" || req.ProductBrand != "" {
		meta = &services.VoteMeta{
			ProductName:  req.ProductName,
			ProductBrand: req.ProductBrand,
		}
	}

	pv, err := services.RecordVote(req.Barcode, models.VoteType(req.VoteType), req.Fingerprint, meta)
	if err != nil {
		DomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barcode":              pv.Barcode,
		"total_weighted_votes": pv.TotalWeightedVotes,
		"funding_threshold":    pv.FundingThreshold,
		"status":               pv.Status,
		"velocity_score":       pv.VelocityScore,
		"urgency_flag":         pv.UrgencyFlag,
		"unique_voters":        pv.UniqueVoterCount,
	})
}
