package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/queue"
	"github.com/dernsupport/service-desk/internal/repository"
	queue_publisher "github.com/dernsupport/service-desk/internal/service"
	"github.com/dernsupport/service-desk/internal/utils"
)

// RequestHandler bundles dependencies for the service request
// lifecycle: submission, assignment, status transitions and listings.
type RequestHandler struct {
	Cfg      config.Config
	Requests *repository.ServiceRequestRepo
	Types    *repository.ServiceTypeRepo
	Users    *repository.UserRepo
	Notifier *Notifier
}

func NewRequestHandler(cfg config.Config, r *repository.ServiceRequestRepo, t *repository.ServiceTypeRepo,
	u *repository.UserRepo, n *Notifier) *RequestHandler {
	return &RequestHandler{Cfg: cfg, Requests: r, Types: t, Users: u, Notifier: n}
}

// ----- DTOs -----

type createRequestReq struct {
	ServiceTypeID      uint64  `json:"serviceTypeId"`
	DeviceType         string  `json:"deviceType"`
	DeviceBrand        *string `json:"deviceBrand"`
	DeviceModel        *string `json:"deviceModel"`
	ProblemDescription string  `json:"problemDescription"`
	UrgencyLevel       string  `json:"urgencyLevel"`
	City               string  `json:"city"`
	Address            string  `json:"address"`
	PreferredDate      string  `json:"preferredDate"` // YYYY-MM-DD
	PreferredTime      string  `json:"preferredTime"`
	ContactMethod      string  `json:"contactMethod"`
	AdditionalInfo     *string `json:"additionalInfo"`

	// Contact block, used only when the caller is anonymous.
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	UserType      string  `json:"userType"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	CompanyName   *string `json:"companyName"`
	INN           *string `json:"inn"`
	ContactPerson *string `json:"contactPerson"`
	Website       *string `json:"website"`
}

func (r *createRequestReq) validate() string {
	r.ProblemDescription = strings.TrimSpace(r.ProblemDescription)
	if r.ServiceTypeID == 0 {
		return "serviceTypeId is required"
	}
	if !model.ValidDeviceType(r.DeviceType) {
		return "invalid deviceType"
	}
	if r.ProblemDescription == "" {
		return "problemDescription is required"
	}
	if !model.ValidUrgency(r.UrgencyLevel) {
		return "invalid urgencyLevel"
	}
	if !model.ValidContactMethod(r.ContactMethod) {
		return "invalid contactMethod"
	}
	if strings.TrimSpace(r.City) == "" {
		return "city is required"
	}
	if strings.TrimSpace(r.Address) == "" {
		return "address is required"
	}
	if r.PreferredTime == "" {
		return "preferredTime is required"
	}
	return ""
}

// Create accepts a service request from an authenticated customer or an
// anonymous visitor.  Anonymous submissions with an unknown email get
// an auto-created account with a generated password, which is returned
// once in the response and also sent by email; a known email attaches
// the request to the existing account without issuing credentials.
// The catalog base price is snapshotted onto the request at this
// moment and never re-read.
func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}
	preferred, err := time.Parse("2006-01-02", req.PreferredDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid preferredDate, want YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.Types.GetByID(ctx, req.ServiceTypeID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "service type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !st.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "service type is not available"})
	}

	var (
		userID            uint64
		autoCreated       bool
		generatedPassword string
	)
	if uid, err := getUserID(c); err == nil {
		userID = uid
	} else {
		userID, generatedPassword, err = h.resolveAnonymous(ctx, &req)
		if err != nil {
			if err == errBadContact {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "contact details are required for anonymous requests"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create account failed"})
		}
		autoCreated = generatedPassword != ""
	}

	sr := model.ServiceRequest{
		UserID:             userID,
		ServiceTypeID:      st.ID,
		DeviceType:         req.DeviceType,
		DeviceBrand:        req.DeviceBrand,
		DeviceModel:        req.DeviceModel,
		ProblemDescription: req.ProblemDescription,
		UrgencyLevel:       req.UrgencyLevel,
		City:               strings.TrimSpace(req.City),
		Address:            strings.TrimSpace(req.Address),
		PreferredDate:      preferred,
		PreferredTime:      req.PreferredTime,
		ContactMethod:      req.ContactMethod,
		AdditionalInfo:     req.AdditionalInfo,
		FixedPrice:         st.BasePrice,
		IsAutoCreatedUser:  autoCreated,
	}
	id, err := h.Requests.Create(ctx, sr)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create request failed"})
	}

	h.Notifier.Emit(ctx, model.Notification{
		Type:         model.NotifyServiceRequest,
		Title:        "New service request",
		Message:      "A new " + st.Name + " request was submitted",
		RelatedID:    id,
		RelatedModel: model.RelatedServiceRequest,
		TargetRoles:  []string{model.RoleManager},
		Priority:     req.UrgencyLevel,
	})

	details, err := h.Requests.GetDetails(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	resp := echo.Map{"request": details}
	if generatedPassword != "" {
		// Shown exactly once; the account email carries it as well.
		resp["generatedPassword"] = generatedPassword
	}
	return c.JSON(http.StatusCreated, resp)
}

var errBadContact = errors.New("contact details required")

// resolveAnonymous resolves a visitor's submission to an account.  A
// known email attaches to the existing account with no credentials
// issued; otherwise an account is synthesized from the contact block,
// which must be valid for its user type.  The generated password is
// returned only on the synthesis path.
func (h *RequestHandler) resolveAnonymous(ctx context.Context, req *createRequestReq) (uint64, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return 0, "", errBadContact
	}
	existing, err := h.Users.GetByEmail(ctx, email)
	if err == nil {
		return existing.ID, "", nil
	}
	if err != repository.ErrNotFound {
		return 0, "", err
	}

	if req.UserType == "" {
		req.UserType = model.UserTypeIndividual
	}
	u := model.User{
		UserType:      req.UserType,
		Role:          model.RoleUser,
		Email:         email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		CompanyName:   req.CompanyName,
		INN:           req.INN,
		ContactPerson: req.ContactPerson,
		Website:       req.Website,
		IsActive:      true,
	}
	if u.ValidateProfile() != "" {
		return 0, "", errBadContact
	}

	password, err := utils.GenerateTempPassword()
	if err != nil {
		return 0, "", err
	}
	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return 0, "", err
	}
	u.PasswordHash = hash

	uid, err := h.Users.Create(ctx, u)
	if err == repository.ErrEmailExists {
		// Lost a race with a concurrent submission for the same email;
		// attach to whoever won.
		if winner, gerr := h.Users.GetByEmail(ctx, email); gerr == nil {
			return winner.ID, "", nil
		}
		return 0, "", err
	}
	if err != nil {
		return 0, "", err
	}
	utils.SendAccountCreatedEmail(email, u.DisplayName(), password)
	return uid, password, nil
}

// ListMine returns the caller's own requests.
func (h *RequestHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, err := h.Requests.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// Get returns one request with joined names.  Visible to the owning
// customer, the assigned master and managers; everyone else gets 403.
func (h *RequestHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Requests.GetDetails(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}

	role := getRole(c)
	owner := d.UserID == uid
	assigned := d.AssignedMasterID != nil && *d.AssignedMasterID == uid
	if role != model.RoleManager && !owner && !(role == model.RoleMaster && assigned) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, d)
}

// List returns the manager's paginated view over all requests.
func (h *RequestHandler) List(c echo.Context) error {
	f := repository.RequestFilter{
		Status: c.QueryParam("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}
	if f.Status != "" && !model.ValidStatus(f.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, total, err := h.Requests.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"requests":   requests,
		"pagination": newPageMeta(total, f.Page, f.Limit),
	})
}

// Assignments returns the master's active queue: assigned, started and
// on-hold work ordered by preferred date.
func (h *RequestHandler) Assignments(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, err := h.Requests.ListAssignedTo(ctx, uid,
		model.StatusAssigned, model.StatusInProgress, model.StatusOnHold)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// CompletedAssignments returns the master's finished work, most recent
// first.
func (h *RequestHandler) CompletedAssignments(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, err := h.Requests.ListAssignedTo(ctx, uid, model.StatusCompleted)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// Assign attaches a master to a request.  Allowed from any non-terminal
// status; re-assignment keeps the original assigned date.
func (h *RequestHandler) Assign(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req struct {
		MasterID     uint64  `json:"masterId"`
		ManagerNotes *string `json:"managerNotes"`
	}
	if err := c.Bind(&req); err != nil || req.MasterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "masterId is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if model.TerminalStatus(sr.Status) {
		return c.JSON(http.StatusConflict, echo.Map{"message": "cannot assign a " + sr.Status + " request"})
	}
	if !model.CanTransition(sr.Status, model.StatusAssigned) {
		return c.JSON(http.StatusConflict, echo.Map{"message": "cannot assign from status " + sr.Status})
	}

	master, err := h.Users.GetByID(ctx, req.MasterID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "master not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if master.Role != model.RoleMaster {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "user is not a master"})
	}

	if err := h.Requests.Assign(ctx, id, req.MasterID, req.ManagerNotes); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "assign failed"})
	}

	h.Notifier.Emit(ctx, model.Notification{
		Type:         model.NotifyAssignmentUpdate,
		Title:        "New assignment",
		Message:      "Service request #" + c.Param("id") + " was assigned to you",
		RelatedID:    id,
		RelatedModel: model.RelatedServiceRequest,
		TargetRoles:  []string{model.RoleMaster},
		TargetUsers:  []uint64{req.MasterID},
	})

	d, err := h.Requests.GetDetails(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// UpdateStatus moves a request through the lifecycle.  Managers may
// drive any permitted transition; a master may only move their own
// assignments.  Completion publishes the request.completed event to the
// broker and notifies the customer; both are best-effort.
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req struct {
		Status      string  `json:"status"`
		MasterNotes *string `json:"masterNotes"`
	}
	if err := c.Bind(&req); err != nil || !model.ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}

	role := getRole(c)
	if role == model.RoleMaster {
		if sr.AssignedMasterID == nil || *sr.AssignedMasterID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "request is not assigned to you"})
		}
	}
	if !model.CanTransition(sr.Status, req.Status) {
		return c.JSON(http.StatusConflict,
			echo.Map{"message": "cannot move request from " + sr.Status + " to " + req.Status})
	}

	if err := h.Requests.UpdateStatus(ctx, id, req.Status, req.MasterNotes); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	d, err := h.Requests.GetDetails(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}

	// Only the completed edge is announced; intermediate moves stay
	// quiet.  The idempotent completed self-transition announces
	// nothing either.
	if req.Status == model.StatusCompleted && sr.Status != model.StatusCompleted {
		h.Notifier.Emit(ctx, model.Notification{
			Type:         model.NotifyStatusUpdate,
			Title:        "Request completed",
			Message:      "Request #" + strconv.FormatUint(id, 10) + " for " + d.CustomerName + " is completed",
			RelatedID:    id,
			RelatedModel: model.RelatedServiceRequest,
			TargetRoles:  []string{model.RoleManager},
		})
		h.publishCompleted(d)
	}
	return c.JSON(http.StatusOK, d)
}

// publishCompleted emits the request.completed broker event in the
// background so a slow broker never stalls the response.
func (h *RequestHandler) publishCompleted(d model.RequestDetails) {
	ev := queue.RequestCompletedEvent{
		RequestID:    d.ID,
		CustomerID:   d.UserID,
		CustomerName: d.CustomerName,
		ServiceType:  d.ServiceTypeName,
		DeviceType:   d.DeviceType,
		FinalPrice:   d.FixedPrice,
	}
	if d.FinalPrice != nil {
		ev.FinalPrice = *d.FinalPrice
	}
	if d.AssignedMasterID != nil {
		ev.MasterID = *d.AssignedMasterID
	}
	if d.CompletedAt != nil {
		ev.CompletedAt = d.CompletedAt.UTC().Format(time.RFC3339)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRequestCompleted(ctx, ev)
	}()
}
