package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"blackjack-service/internal/middleware"
	"blackjack-service/internal/service"
	shopsvc "blackjack-service/internal/service/shop"
	usersvc "blackjack-service/internal/service/user"
	"blackjack-service/internal/ws"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/blackjack/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/sms/send", handler.SendSMSCode)
			authGroup.POST("/sms/login", handler.SMSLogin)
		}

		v1.GET("/leaderboard", handler.Leaderboard)

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
			userGroup.GET("/stats", handler.GetStats)
			userGroup.GET("/rounds", handler.ListRounds)
		}

		referralGroup := v1.Group("/referral")
		referralGroup.Use(middleware.AuthRequired())
		{
			referralGroup.GET("", handler.ReferralOverview)
			referralGroup.GET("/invitees", handler.ListInvitees)
		}

		walletGroup := v1.Group("/wallet")
		walletGroup.Use(middleware.AuthRequired())
		{
			walletGroup.GET("", handler.GetWallet)
			walletGroup.GET("/billing", handler.ListBilling)
			walletGroup.GET("/packages", handler.ListPackages)
			walletGroup.POST("/bonus/daily", handler.ClaimDailyBonus)
			walletGroup.POST("/recharge", handler.CreateRechargeOrder)
		}

		tableGroup := v1.Group("/tables")
		tableGroup.Use(middleware.AuthRequired())
		{
			tableGroup.GET("", handler.ListTables)
			tableGroup.POST("", handler.CreateTable)
			tableGroup.POST("/solo", handler.StartSolo)
			tableGroup.GET("/current", handler.CurrentTable)
			tableGroup.GET("/:tableId", handler.TableState)
			tableGroup.POST("/:tableId/join", handler.JoinTable)
			tableGroup.POST("/:tableId/leave", handler.LeaveTable)
			tableGroup.POST("/:tableId/ready", handler.Ready)
			tableGroup.POST("/:tableId/bet", handler.SetBet)
			tableGroup.POST("/:tableId/hit", handler.Hit)
			tableGroup.POST("/:tableId/stand", handler.Stand)
			tableGroup.POST("/:tableId/double", handler.Double)
			tableGroup.POST("/:tableId/split", handler.Split)
		}
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/me", handler.AdminMe)
			protected.PUT("/password", handler.AdminChangePassword)
			protected.GET("/users", handler.AdminListUsers)
			protected.GET("/users/:id", handler.AdminGetUser)
			protected.PUT("/users/:id/ban", handler.AdminBanUser)
			protected.PUT("/users/:id/wallet", handler.AdminAdjustWallet)
			protected.GET("/users/:id/billing", handler.AdminListBilling)
			protected.GET("/users/:id/rounds", handler.AdminListRounds)
			protected.PUT("/recharges/:orderNo/pay", handler.AdminPayRecharge)
			protected.GET("/packages", handler.AdminListPackages)
			protected.POST("/packages", handler.AdminCreatePackage)
			protected.PUT("/packages/:id", handler.AdminUpdatePackage)
		}
	}

	r.GET("/ws/table/:tableId", wsHandler.HandleTableWS)
}

type smsSendBody struct {
	Phone string `json:"phone" binding:"required"`
}

type smsLoginBody struct {
	Phone      string `json:"phone" binding:"required"`
	Code       string `json:"code" binding:"required"`
	InviteCode string `json:"inviteCode"`
}

type updateProfileBody struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

type createTableBody struct {
	Bet int64 `json:"bet" binding:"required,min=1"`
}

type betBody struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

type rechargeBody struct {
	Amount    int64 `json:"amount"`
	PackageID int64 `json:"packageId"`
}

type packageBody struct {
	Name      string `json:"name" binding:"required"`
	Chips     int64  `json:"chips" binding:"required,min=1"`
	Bonus     int64  `json:"bonus"`
	Status    string `json:"status"`
	SortOrder int    `json:"sortOrder"`
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminPasswordBody struct {
	Current string `json:"current" binding:"required"`
	Next    string `json:"next" binding:"required"`
}

type adminUserBanBody struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type adminWalletAdjustBody struct {
	Delta int64  `json:"delta" binding:"required"`
	Note  string `json:"note"`
}

func (h *Handler) SendSMSCode(c *gin.Context) {
	var body smsSendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Auth.SendSMS(c.Request.Context(), body.Phone, c.ClientIP()); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, appErr.ErrSMSCodeThrottled):
			status = http.StatusTooManyRequests
		case errors.Is(err, appErr.ErrInvalidPhone):
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
		response.Error(c, status, err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "code sent")
}

func (h *Handler) SMSLogin(c *gin.Context) {
	var body smsLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), body.Phone, body.Code, body.InviteCode)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidPhone),
			errors.Is(err, appErr.ErrInvalidSMSCode),
			errors.Is(err, appErr.ErrInviteCodeNotFound),
			errors.Is(err, appErr.ErrAlreadyBoundInviter):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrSMSCodeExpired):
			status = http.StatusGone
		case errors.Is(err, appErr.ErrUserBanned):
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.UpdateProfile(c.Request.Context(), userID, usersvc.UpdateProfileRequest{
		Nickname: body.Nickname,
		Avatar:   body.Avatar,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, updated)
}

func (h *Handler) GetStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.services.User.GetStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, stats)
}

func (h *Handler) ListRounds(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.User.Rounds(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.List(c, result.Items, result.Total)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.services.User.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) ListBilling(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Wallet.Billing(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.List(c, result.Items, result.Total)
}

func (h *Handler) ClaimDailyBonus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.services.Wallet.ClaimDailyBonus(c.Request.Context(), userID)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.services.Shop.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"packages": packages})
}

func (h *Handler) CreateRechargeOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body rechargeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	amount := body.Amount
	if body.PackageID > 0 {
		pkg, err := h.services.Shop.GetActive(c.Request.Context(), body.PackageID)
		if err != nil {
			h.handleWalletError(c, err)
			return
		}
		amount = pkg.Chips + pkg.Bonus
	}

	order, err := h.services.Wallet.CreateRechargeOrder(c.Request.Context(), userID, amount)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}

func (h *Handler) ReferralOverview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	overview, err := h.services.Referral.Overview(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, overview)
}

func (h *Handler) ListInvitees(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Referral.Invitees(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.List(c, result.Items, result.Total)
}

func (h *Handler) ListTables(c *gin.Context) {
	response.Success(c, gin.H{"tables": h.services.Game.Tables()})
}

func (h *Handler) CreateTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alias, avatar := h.playerIdentity(c, userID)
	tableID, err := h.services.Game.CreateTable(c.Request.Context(), userID, alias, avatar, body.Bet)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"tableId": tableID})
}

func (h *Handler) StartSolo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alias, avatar := h.playerIdentity(c, userID)
	tableID, err := h.services.Game.StartSolo(c.Request.Context(), userID, alias, avatar, body.Bet)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, gin.H{"tableId": tableID})
}

func (h *Handler) CurrentTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	tableID, seated := h.services.Game.CurrentTable(userID)
	response.Success(c, gin.H{"tableId": tableID, "seated": seated})
}

func (h *Handler) TableState(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, err := h.services.Game.State(c.Request.Context(), c.Param("tableId"), userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *Handler) JoinTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alias, avatar := h.playerIdentity(c, userID)
	if err := h.services.Game.Join(c.Request.Context(), c.Param("tableId"), userID, alias, avatar, body.Bet); err != nil {
		h.handleGameError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{"tableId": c.Param("tableId")}, "joined")
}

func (h *Handler) LeaveTable(c *gin.Context) {
	h.tableAction(c, h.services.Game.Leave)
}

func (h *Handler) Ready(c *gin.Context) {
	h.tableAction(c, h.services.Game.Ready)
}

func (h *Handler) Hit(c *gin.Context) {
	h.tableAction(c, h.services.Game.Hit)
}

func (h *Handler) Stand(c *gin.Context) {
	h.tableAction(c, h.services.Game.Stand)
}

func (h *Handler) Double(c *gin.Context) {
	h.tableAction(c, h.services.Game.Double)
}

func (h *Handler) Split(c *gin.Context) {
	h.tableAction(c, h.services.Game.Split)
}

func (h *Handler) SetBet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body betBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Game.SetBet(c.Request.Context(), c.Param("tableId"), userID, body.Amount); err != nil {
		h.handleGameError(c, err)
		return
	}
	h.respondTableState(c, userID)
}

// tableAction runs a bet-free table command and answers with the fresh
// state so HTTP-only clients can poll without a second request.
func (h *Handler) tableAction(c *gin.Context, action func(ctx context.Context, tableID string, userID int64) error) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := action(c.Request.Context(), c.Param("tableId"), userID); err != nil {
		h.handleGameError(c, err)
		return
	}
	h.respondTableState(c, userID)
}

func (h *Handler) respondTableState(c *gin.Context, userID int64) {
	state, err := h.services.Game.State(c.Request.Context(), c.Param("tableId"), userID)
	if err != nil {
		// The table may be gone right after a leave emptied it.
		response.SuccessWithMsg(c, gin.H{}, "ok")
		return
	}
	response.Success(c, state)
}

func (h *Handler) playerIdentity(c *gin.Context, userID int64) (string, string) {
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil || profile == nil {
		return fmt.Sprintf("player%d", userID), ""
	}
	alias := strings.TrimSpace(profile.Nickname)
	if alias == "" {
		alias = fmt.Sprintf("player%d", userID)
	}
	return alias, profile.Avatar
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrAdminNotFound), errors.Is(err, appErr.ErrInvalidAdminPassword):
			status = http.StatusUnauthorized
		case errors.Is(err, appErr.ErrAdminDisabled):
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) AdminMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	info, err := h.services.Admin.Get(c.Request.Context(), adminID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrAdminNotFound) {
			status = http.StatusUnauthorized
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, info)
}

func (h *Handler) AdminChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body adminPasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Admin.ChangePassword(c.Request.Context(), adminID, body.Current, body.Next); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidAdminPassword):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrAdminNotFound):
			status = http.StatusUnauthorized
		}
		response.Error(c, status, err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "password updated")
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && status != "normal" && status != "banned" {
		response.Error(c, http.StatusBadRequest, "invalid status filter")
		return
	}

	result, err := h.services.User.AdminListUsers(c.Request.Context(), usersvc.AdminListUsersFilter{
		Page:         page,
		Size:         size,
		Status:       status,
		PhoneKeyword: strings.TrimSpace(c.Query("phone")),
		InviteCode:   strings.TrimSpace(c.Query("inviteCode")),
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	account, err := h.services.User.AdminGetUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, gin.H{"user": account})
}

func (h *Handler) AdminBanUser(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var body adminUserBanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.AdminUpdateUserStatus(c.Request.Context(), userID, body.Status, body.Reason)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrUserNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, appErr.ErrInvalidUserStatus):
			statusCode = http.StatusBadRequest
		}
		response.Error(c, statusCode, err.Error())
		return
	}

	response.Success(c, gin.H{"user": updated})
}

func (h *Handler) AdminAdjustWallet(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var body adminWalletAdjustBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	wallet, err := h.services.Wallet.AdminAdjust(c.Request.Context(), userID, body.Delta, body.Note)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) AdminListBilling(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Wallet.Billing(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.List(c, result.Items, result.Total)
}

func (h *Handler) AdminListRounds(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.User.Rounds(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.List(c, result.Items, result.Total)
}

func (h *Handler) AdminPayRecharge(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("orderNo"))
	if orderNo == "" {
		response.Error(c, http.StatusBadRequest, "invalid order no")
		return
	}

	order, err := h.services.Wallet.PayRechargeOrder(c.Request.Context(), orderNo)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.Success(c, gin.H{"order": order})
}

func (h *Handler) AdminListPackages(c *gin.Context) {
	page, size, err := parsePageQuery(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Shop.AdminList(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) AdminCreatePackage(c *gin.Context) {
	var body packageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.services.Shop.Create(c.Request.Context(), shopParams(body))
	if err != nil {
		h.handlePackageError(c, err)
		return
	}
	response.Success(c, gin.H{"package": pkg})
}

func (h *Handler) AdminUpdatePackage(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid package id")
		return
	}

	var body packageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.services.Shop.Update(c.Request.Context(), id, shopParams(body))
	if err != nil {
		h.handlePackageError(c, err)
		return
	}
	response.Success(c, gin.H{"package": pkg})
}

func shopParams(body packageBody) shopsvc.PackageMutationParams {
	return shopsvc.PackageMutationParams{
		Name:      body.Name,
		Chips:     body.Chips,
		Bonus:     body.Bonus,
		Status:    body.Status,
		SortOrder: body.SortOrder,
	}
}

func (h *Handler) handlePackageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrPackageNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrInvalidPackage):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrTableNotFound), errors.Is(err, appErr.ErrWalletNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrTableFull),
		errors.Is(err, appErr.ErrAlreadySeated),
		errors.Is(err, appErr.ErrRoundInProgress),
		errors.Is(err, appErr.ErrNotYourTurn):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrNotSeated):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrInvalidBet),
		errors.Is(err, appErr.ErrInvalidSplit),
		errors.Is(err, appErr.ErrInvalidDouble),
		errors.Is(err, appErr.ErrInvalidAction),
		errors.Is(err, appErr.ErrInsufficientFunds):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrWalletNotFound), errors.Is(err, appErr.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrBonusAlreadyClaimed), errors.Is(err, appErr.ErrOrderAlreadyPaid):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrInvalidAmount):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func parsePageQuery(c *gin.Context) (int, int, error) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func getAdminID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextAdminIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
