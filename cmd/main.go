package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"prize_engine/internal/attribution"
	"prize_engine/internal/campaign"
	"prize_engine/internal/game"
	"prize_engine/internal/history"
	"prize_engine/internal/prize"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type playRequest struct {
	ParticipantID string `json:"participant_id"`
	Email         string `json:"email"`
	DeviceID      string `json:"device_id"`
	ReferenceID   string `json:"reference_id"`
}

func main() {

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded", err)
	}

	var (
		campaignRepo campaign.CampaignRepository
		prizeRepo    prize.PrizeRepository
		historyRepo  history.HistoryRepository
	)

	if dbConnStr := os.Getenv("DB_CONN_STR"); dbConnStr != "" {
		db, err := gorm.Open(postgres.Open(dbConnStr), &gorm.Config{})
		if err != nil {
			log.Fatalln(err)
		}
		if err := db.AutoMigrate(&campaign.Campaign{}, &prize.Prize{}, &history.Record{}); err != nil {
			log.Fatalln(err)
		}
		campaignRepo = campaign.NewCampaignRepository(db)
		prizeRepo = prize.NewPrizeRepository(db)
		historyRepo = history.NewHistoryRepository(db)
	} else {
		log.Printf("DB_CONN_STR not set, running with in-memory stores and a demo campaign")
		memCampaigns := campaign.NewMemoryRepository()
		memPrizes := prize.NewMemoryRepository()
		campaignRepo = memCampaigns
		prizeRepo = memPrizes
		historyRepo = history.NewMemoryRepository()
		seedDemo(memCampaigns, memPrizes)
	}

	rng := attribution.NewCryptoSource()
	hub := attribution.NewNotificationHub()
	engine := attribution.NewEngine(prizeRepo, historyRepo, rng, hub)

	wheel := game.NewWheelAdapter(rng)
	scratch := game.NewScratchAdapter(rng, game.DefaultCardCount)
	jackpot := game.NewJackpotAdapter(rng, nil, nil)

	r := gin.Default()

	r.POST("/campaigns/:campaign_id/play/:mechanic", func(c *gin.Context) {
		camp, ok := loadCampaign(c, campaignRepo)
		if !ok {
			return
		}
		if camp.Status != campaign.StatusActive {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign is not active"})
			return
		}

		var req playRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actx := attribution.Context{
			CampaignID:    camp.CampaignID,
			ParticipantID: req.ParticipantID,
			Email:         req.Email,
			DeviceID:      req.DeviceID,
			ReferenceID:   req.ReferenceID,
			IP:            c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}
		result := engine.Attribute(c.Request.Context(), camp, actx)

		var outcome interface{}
		switch c.Param("mechanic") {
		case "wheel":
			outcome = wheel.Render(result)
		case "scratch":
			outcome = scratch.Render(result)
		case "jackpot":
			outcome = jackpot.Render(result)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mechanic"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "outcome": outcome})
	})

	r.GET("/campaigns/:campaign_id/prizes", func(c *gin.Context) {
		prizes, err := prizeRepo.ListByCampaign(c.Request.Context(), c.Param("campaign_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prizes": prizes})
	})

	r.GET("/campaigns/:campaign_id/history", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		records, err := historyRepo.ListByCampaign(c.Request.Context(), c.Param("campaign_id"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	r.GET("/campaigns/:campaign_id/rank", func(c *gin.Context) {
		rank, err := engine.NextRank(c.Request.Context(), c.Param("campaign_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"next_rank": rank})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Println("Server started on :" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func loadCampaign(c *gin.Context, repo campaign.CampaignRepository) (*campaign.Campaign, bool) {
	camp, err := repo.GetCampaign(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		if err == campaign.ErrCampaignNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return camp, true
}

// seedDemo fills the in-memory stores with a playable demo campaign.
func seedDemo(campaigns *campaign.MemoryRepository, prizes *prize.MemoryRepository) {
	ctx := context.Background()
	campaignID := "00000000-0000-0000-0000-000000000001"
	_ = campaigns.CreateCampaign(ctx, &campaign.Campaign{
		CampaignID:              campaignID,
		Name:                    "Demo instant win",
		Status:                  campaign.StatusActive,
		PriorityPolicy:          campaign.PrioritySequential,
		MaxWinsPerEmail:         1,
		VerificationPeriodHours: campaign.DefaultVerificationPeriodHours,
		NotifyOnWin:             true,
		NotifyOnExhausted:       true,
	})
	soon := time.Now().Add(10 * time.Minute)
	_ = prizes.CreatePrize(ctx, &prize.Prize{
		PrizeID:       uuid.New().String(),
		CampaignID:    campaignID,
		Name:          "Golden ticket",
		Status:        prize.StatusActive,
		Value:         decimal.NewFromInt(500),
		TotalQuantity: 1,
		Position:      0,
		Method:        prize.MethodCalendar,
		ScheduledAt:   &soon,
		WindowMinutes: 30,
		SegmentIDs:    []string{"seg-1"},
		SymbolID:      game.SymbolDiamond,
	})
	_ = prizes.CreatePrize(ctx, &prize.Prize{
		PrizeID:       uuid.New().String(),
		CampaignID:    campaignID,
		Name:          "Coffee voucher",
		Status:        prize.StatusActive,
		Value:         decimal.NewFromInt(5),
		TotalQuantity: 100,
		Position:      1,
		Method:        prize.MethodProbability,
		WinPercent:    25,
		SegmentIDs:    []string{"seg-2", "seg-4"},
		SymbolID:      game.SymbolCherry,
	})
	_ = prizes.CreatePrize(ctx, &prize.Prize{
		PrizeID:       uuid.New().String(),
		CampaignID:    campaignID,
		Name:          "Sticker pack",
		Status:        prize.StatusActive,
		Value:         decimal.NewFromInt(1),
		TotalQuantity: 1000,
		Position:      2,
		Method:        prize.MethodInstantWin,
		SegmentIDs:    []string{"seg-6"},
		SymbolID:      game.SymbolStar,
	})
	log.Printf("seeded demo campaign %s with 3 prizes", campaignID)
}
