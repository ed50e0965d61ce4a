package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marate/models"
	"marate/pkg/ledger"
)

func setupRoutes(r *gin.Engine, engine *ledger.Engine) {
	r.GET("/healthz", healthHandler(engine))
	r.POST("/register", registerHandler(engine))
	r.POST("/login", loginHandler(engine))

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware(engine))
	authGroup.GET("/me", meHandler)
	authGroup.POST("/receipts", issueReceiptHandler(engine))
	authGroup.GET("/receipts/:id/pdf", receiptPDFHandler(engine))
	authGroup.PUT("/receipts/:id", updateReceiptHandler(engine))
	authGroup.DELETE("/receipts/:id", deleteReceiptHandler(engine))
	authGroup.POST("/expenses", recordExpenseHandler(engine))
	authGroup.PUT("/expenses/:id", updateExpenseHandler(engine))
	authGroup.DELETE("/expenses/:id", deleteExpenseHandler(engine))
	authGroup.GET("/dashboard", dashboardHandler(engine))
	authGroup.GET("/users", listUsersHandler(engine))
	authGroup.DELETE("/users/:id", deleteUserHandler(engine))
	authGroup.POST("/account/username", changeUsernameHandler(engine))
	authGroup.POST("/account/password", changePasswordHandler(engine))
	authGroup.GET("/clients", listClientsHandler(engine))
	authGroup.POST("/clients", createClientHandler(engine))
	authGroup.PUT("/clients/:id", updateClientHandler(engine))
	authGroup.DELETE("/clients/:id", deleteClientHandler(engine))
}

// respondError maps the engine's typed errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		validation *ledger.ValidationError
		authz      *ledger.AuthorizationError
		notFound   *ledger.NotFoundError
		conflict   *ledger.ConflictError
		protected  *ledger.ProtectedEntityError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &protected):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func healthHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !engine.Healthy(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"store": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"store": true})
	}
}

func registerHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := engine.Register(c.Request.Context(), req.Username, req.Password); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
	}
}

func loginHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		principal, err := engine.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		tokenString, err := issueToken(principal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
	}
}

func meHandler(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing principal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": p.Username, "role": p.Role})
}

func issueReceiptHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		var req struct {
			CustomerName  string `json:"customer_name" binding:"required"`
			PaymentType   string `json:"payment_type" binding:"required"`
			PaymentReason string `json:"payment_reason"`
			Price         string `json:"price" binding:"required"`
			AmountInWords string `json:"amount_in_words"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := engine.Issue(c.Request.Context(), p, ledger.IssueInput{
			CustomerName:  req.CustomerName,
			PaymentType:   req.PaymentType,
			PaymentReason: req.PaymentReason,
			Price:         req.Price,
			AmountInWords: req.AmountInWords,
		}, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		if res.Degraded {
			// receipt committed, document not available: textual fallback
			c.JSON(http.StatusOK, gin.H{
				"receipt":  receiptJSON(res.Receipt),
				"degraded": true,
				"fallback": res.Fallback,
			})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", res.Receipt.ReceiptNumber))
		c.Header("X-Receipt-Number", res.Receipt.ReceiptNumber)
		c.Data(http.StatusOK, "application/pdf", res.Document)
	}
}

func receiptPDFHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		doc, err := engine.Render(c.Request.Context(), p, id)
		if err != nil {
			var unavailable *ledger.RendererUnavailableError
			if errors.As(err, &unavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document renderer unavailable"})
				return
			}
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=receipt.pdf")
		c.Data(http.StatusOK, "application/pdf", doc)
	}
}

func updateReceiptHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req struct {
			CustomerName  string `json:"customer_name" binding:"required"`
			PaymentType   string `json:"payment_type" binding:"required"`
			PaymentReason string `json:"payment_reason"`
			Price         string `json:"price" binding:"required"`
			AmountInWords string `json:"amount_in_words"`
			Date          string `json:"date"` // optional ISO8601
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		update := ledger.ReceiptUpdate{
			CustomerName:  req.CustomerName,
			PaymentType:   req.PaymentType,
			PaymentReason: req.PaymentReason,
			Price:         req.Price,
			AmountInWords: req.AmountInWords,
		}
		if req.Date != "" {
			if t, err := time.Parse(time.RFC3339, req.Date); err == nil {
				update.Date = t
			}
		}
		receipt, err := engine.UpdateReceipt(c.Request.Context(), p, id, update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, receiptJSON(receipt))
	}
}

func deleteReceiptHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := engine.DeleteReceipt(c.Request.Context(), p, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "receipt deleted"})
	}
}

func recordExpenseHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		var req struct {
			Description string `json:"description" binding:"required"`
			Amount      string `json:"amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		exp, err := engine.RecordExpense(c.Request.Context(), p, req.Description, req.Amount, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenseJSON(exp))
	}
}

func updateExpenseHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req struct {
			Description string `json:"description" binding:"required"`
			Amount      string `json:"amount" binding:"required"`
			Date        string `json:"date"` // optional ISO8601
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		update := ledger.ExpenseUpdate{Description: req.Description, Amount: req.Amount}
		if req.Date != "" {
			if t, err := time.Parse(time.RFC3339, req.Date); err == nil {
				update.Date = t
			}
		}
		exp, err := engine.UpdateExpense(c.Request.Context(), p, id, update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenseJSON(exp))
	}
}

func deleteExpenseHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := engine.DeleteExpense(c.Request.Context(), p, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
	}
}

// dashboardHandler returns totals, the monthly series and recency views.
// Admins see the whole organization unless they ask for scope=personal;
// everyone else is always scoped to their own records.
func dashboardHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		scope := ledger.PersonalScope(p.UserID)
		if p.IsAdmin() && c.Query("scope") != "personal" {
			scope = ledger.CompanyScope()
		}
		sum, err := engine.Aggregate(c.Request.Context(), p, scope)
		if err != nil {
			respondError(c, err)
			return
		}
		months := make([]gin.H, 0, len(sum.Monthly))
		for _, m := range sum.Monthly {
			months = append(months, gin.H{
				"month":    fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
				"income":   ledger.FormatCents(m.IncomeCents),
				"expenses": ledger.FormatCents(m.ExpenseCents),
				"net":      ledger.FormatCents(m.NetCents),
			})
		}
		receipts := make([]gin.H, 0, len(sum.RecentReceipts))
		for i := range sum.RecentReceipts {
			receipts = append(receipts, receiptJSON(&sum.RecentReceipts[i]))
		}
		expenses := make([]gin.H, 0, len(sum.RecentExpenses))
		for i := range sum.RecentExpenses {
			expenses = append(expenses, expenseJSON(&sum.RecentExpenses[i]))
		}
		c.JSON(http.StatusOK, gin.H{
			"total_income":    ledger.FormatCents(sum.TotalIncomeCents),
			"total_expenses":  ledger.FormatCents(sum.TotalExpenseCents),
			"net":             ledger.FormatCents(sum.NetCents),
			"monthly":         months,
			"recent_receipts": receipts,
			"recent_expenses": expenses,
		})
	}
}

func listUsersHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		users, err := engine.ListUsers(c.Request.Context(), p)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			out = append(out, gin.H{
				"id":        u.ID,
				"username":  u.Username,
				"protected": u.Protected,
				"role":      u.Role.Name,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteUserHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := engine.DeleteUser(c.Request.Context(), p, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	}
}

// changeUsernameHandler renames the acting account and returns a fresh token
// bound to the new name, so the client never holds a stale identity.
func changeUsernameHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		var req struct {
			Username string `json:"username" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := engine.ChangeUsername(c.Request.Context(), p, req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		tokenString, err := issueToken(updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": updated.Username, "token": tokenString})
	}
}

func changePasswordHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		var req struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required"`
			ConfirmPassword string `json:"confirm_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := engine.ChangePassword(c.Request.Context(), p, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

func listClientsHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		clients, err := engine.ListClients(c.Request.Context(), p)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(clients))
		for i := range clients {
			out = append(out, clientJSON(&clients[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

type clientRequest struct {
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type"`
	Address         string `json:"address"`
	StartDate       string `json:"start_date"` // optional ISO8601
	EndDate         string `json:"end_date"`   // optional ISO8601
	InstallationFee string `json:"installation_fee"`
	MonthlyPayment  string `json:"monthly_payment"`
	Status          string `json:"status"`
}

func (req clientRequest) toInput() ledger.ClientInput {
	in := ledger.ClientInput{
		Name:            req.Name,
		Type:            req.Type,
		Address:         req.Address,
		InstallationFee: req.InstallationFee,
		MonthlyPayment:  req.MonthlyPayment,
		Status:          req.Status,
	}
	if t, err := time.Parse(time.RFC3339, req.StartDate); err == nil {
		in.StartDate = t
	}
	if t, err := time.Parse(time.RFC3339, req.EndDate); err == nil {
		in.EndDate = &t
	}
	return in
}

func createClientHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		var req clientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		client, err := engine.CreateClient(c.Request.Context(), p, req.toInput())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, clientJSON(client))
	}
}

func updateClientHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req clientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		client, err := engine.UpdateClient(c.Request.Context(), p, id, req.toInput())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, clientJSON(client))
	}
}

func deleteClientHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principalFromContext(c)
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := engine.DeleteClient(c.Request.Context(), p, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
	}
}

func receiptJSON(r *models.Receipt) gin.H {
	return gin.H{
		"id":              r.ID,
		"receipt_number":  r.ReceiptNumber,
		"customer_name":   r.CustomerName,
		"description":     r.Description,
		"payment_type":    r.PaymentType,
		"payment_reason":  r.PaymentReason,
		"price":           ledger.FormatCents(r.PriceCents),
		"amount_in_words": r.AmountInWords,
		"date":            r.Date.Format(time.RFC3339),
		"owner_user_id":   r.OwnerUserID,
	}
}

func expenseJSON(e *models.Expense) gin.H {
	return gin.H{
		"id":            e.ID,
		"description":   e.Description,
		"amount":        ledger.FormatCents(e.AmountCents),
		"date":          e.Date.Format(time.RFC3339),
		"owner_user_id": e.OwnerUserID,
	}
}

func clientJSON(cl *models.Client) gin.H {
	out := gin.H{
		"id":               cl.ID,
		"name":             cl.Name,
		"type":             cl.Type,
		"address":          cl.Address,
		"start_date":       cl.StartDate.Format(time.RFC3339),
		"installation_fee": ledger.FormatCents(cl.InstallationFeeCents),
		"monthly_payment":  ledger.FormatCents(cl.MonthlyPaymentCents),
		"status":           cl.Status,
	}
	if cl.EndDate != nil {
		out["end_date"] = cl.EndDate.Format(time.RFC3339)
	}
	return out
}
