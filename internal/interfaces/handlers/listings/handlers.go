package listings

import (
	"errors"
	"strconv"

	listsvc "anticair-backend/internal/application/listings"
	setsvc "anticair-backend/internal/application/settlement"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service    *listsvc.Service
	Settlement *setsvc.Service
}

func fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrNoListings):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrNegativePrice),
		errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidEmail):
		code = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadySold),
		errors.Is(err, domain.ErrSelfValidation),
		errors.Is(err, domain.ErrNoValidatorAvailable),
		errors.Is(err, domain.ErrNoReplacementValidator):
		code = fiber.StatusConflict
	case errors.Is(err, domain.ErrPaymentNotApproved):
		code = fiber.StatusPaymentRequired
	}
	return response.Error(c, err.Error(), code, nil)
}

func listingID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid listing id")
	}
	return uint(id), nil
}

// POST /api/listing/create
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in listsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Create(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// GET /api/listing/:id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// GET /api/listing
func (h *Handlers) All(c *fiber.Ctx) error {
	out, err := h.Service.All(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", out, nil)
}

// GET /api/listing/checked
func (h *Handlers) Accepted(c *fiber.Ctx) error {
	out, err := h.Service.Accepted(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", out, nil)
}

// PUT /api/listing/accept/:id
func (h *Handlers) Accept(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Accept(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if listing == nil {
		return response.Error(c, "Listing cannot be accepted in its current state", fiber.StatusConflict, nil)
	}
	return response.Success(c, "Listing accepted", listing, nil)
}

// PUT /api/listing/reject/:id
func (h *Handlers) Reject(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var notes listsvc.RejectionNotes
	if err := c.BodyParser(&notes); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Reject(c.Context(), id, notes)
	if err != nil {
		return fail(c, err)
	}
	if listing == nil {
		return response.Error(c, "Listing cannot be rejected: notes incomplete or state not reviewable", fiber.StatusConflict, nil)
	}
	return response.Success(c, "Listing rejected", listing, nil)
}

// PUT /api/listing/:id
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	var in listsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Edit(c.Context(), id, in)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// PUT /api/listing/isDisplay/:id
func (h *Handlers) Hide(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Hide(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if listing == nil {
		return response.Error(c, "A sold listing cannot be hidden", fiber.StatusConflict, nil)
	}
	return response.Success(c, "Listing hidden", listing, nil)
}

// GET /api/listing/byState?mailAntiquarian=...
func (h *Handlers) OpenByValidator(c *fiber.Ctx) error {
	email := c.Query("mailAntiquarian")
	if email == "" {
		return response.Error(c, "mailAntiquarian is required", fiber.StatusBadRequest, nil)
	}
	out, err := h.Service.OpenByValidator(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", out, nil)
}

// GET /api/listing/byMailSeller?mailSeller=...
func (h *Handlers) BySeller(c *fiber.Ctx) error {
	email := c.Query("mailSeller")
	if email == "" {
		return response.Error(c, "mailSeller is required", fiber.StatusBadRequest, nil)
	}
	out, err := h.Service.BySeller(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Listings fetched successfully", out, nil)
}

// POST /api/listing/:id/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	approvalURL, err := h.Settlement.Checkout(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Payment created", fiber.Map{"approval_url": approvalURL}, nil)
}

// GET /api/listing/payment/execute?paymentId=...&PayerID=...
func (h *Handlers) ExecutePayment(c *fiber.Ctx) error {
	paymentID := c.Query("paymentId")
	payerID := c.Query("PayerID")
	if paymentID == "" || payerID == "" {
		return response.Error(c, "paymentId and PayerID are required", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Settlement.ExecutePayment(c.Context(), paymentID, payerID)
	if err != nil {
		if errors.Is(err, domain.ErrPartialCredit) {
			return response.Error(c, err.Error(), fiber.StatusBadGateway, fiber.Map{"retriable": true})
		}
		return fail(c, err)
	}
	return response.Success(c, "Payment executed successfully", listing, nil)
}
