package accounts

import (
	"errors"

	acctsvc "anticair-backend/internal/application/accounts"
	"anticair-backend/internal/application/assignment"
	dirsvc "anticair-backend/internal/application/directory"
	ledsvc "anticair-backend/internal/application/ledger"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Directory *dirsvc.Service
	Accounts  *acctsvc.Service
	Ledger    *ledsvc.Service
	Assign    *assignment.Service
}

func fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrGroupNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidBalance),
		errors.Is(err, domain.ErrInvalidAmount):
		code = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrCannotDisableAdmin),
		errors.Is(err, domain.ErrNoReplacementValidator):
		code = fiber.StatusConflict
	}
	return response.Error(c, err.Error(), code, nil)
}

type emailBody struct {
	Email string `json:"email"`
}

func parseEmail(c *fiber.Ctx) (string, error) {
	var body emailBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return "", errors.New("email is required")
	}
	return body.Email, nil
}

// POST /api/users/create
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dirsvc.CreateAccountInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	account, err := h.Directory.CreateAccount(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "User created successfully", account, nil)
}

// GET /api/users?email=...
func (h *Handlers) Get(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	account, err := h.Directory.FindByEmail(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User fetched successfully", account, nil)
}

// GET /api/users/list
func (h *Handlers) List(c *fiber.Ctx) error {
	accounts, err := h.Directory.ListAll(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Users fetched successfully", accounts, nil)
}

// GET /api/users/byGroup?group=...
func (h *Handlers) ListByGroup(c *fiber.Ctx) error {
	group := c.Query("group")
	if group == "" {
		return response.Error(c, "group is required", fiber.StatusBadRequest, nil)
	}
	accounts, err := h.Directory.ListByGroup(c.Context(), group)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Users fetched successfully", accounts, nil)
}

// PUT /api/users/desactivate
func (h *Handlers) Disable(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Accounts.DisableUser(c.Context(), email); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User disabled successfully", fiber.Map{"email": email}, nil)
}

// PUT /api/users/activate
func (h *Handlers) Enable(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Accounts.EnableUser(c.Context(), email); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User enabled successfully", fiber.Map{"email": email}, nil)
}

// GET /api/users/status?email=...
func (h *Handlers) Status(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	enabled, err := h.Directory.IsEnabled(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User status fetched successfully", fiber.Map{"enabled": enabled}, nil)
}

// GET /api/users/balance?email=...
func (h *Handlers) Balance(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	balance, err := h.Ledger.Get(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Balance fetched successfully", fiber.Map{"balance": balance}, nil)
}

type groupBody struct {
	Email string `json:"email"`
	Group string `json:"group"`
}

// POST /api/groups/join
func (h *Handlers) JoinGroup(c *fiber.Ctx) error {
	var body groupBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Group == "" {
		return response.Error(c, "email and group are required", fiber.StatusBadRequest, nil)
	}
	if err := h.Accounts.AddToGroup(c.Context(), body.Email, body.Group); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User added to group", fiber.Map{"email": body.Email, "group": body.Group}, nil)
}

// POST /api/groups/leave
func (h *Handlers) LeaveGroup(c *fiber.Ctx) error {
	var body groupBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Group == "" {
		return response.Error(c, "email and group are required", fiber.StatusBadRequest, nil)
	}
	if err := h.Accounts.RemoveFromGroup(c.Context(), body.Email, body.Group); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User removed from group", fiber.Map{"email": body.Email, "group": body.Group}, nil)
}

// GET /api/users/groups?email=...
func (h *Handlers) Groups(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	groups, err := h.Directory.GroupsOf(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Groups fetched successfully", groups, nil)
}

type profileBody struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phoneNumber"`
}

// PUT /api/users/update
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var body profileBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	account, err := h.Directory.UpdateProfile(c.Context(), body.Email, body.FirstName, body.LastName, body.Phone)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User updated successfully", account, nil)
}

// GET /api/users/noGroup
func (h *Handlers) ListWithoutGroup(c *fiber.Ctx) error {
	accounts, err := h.Directory.ListWithoutGroup(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Users fetched successfully", accounts, nil)
}

// PUT /api/users/redistributeAntiquity
func (h *Handlers) Redistribute(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	if err := h.Assign.Redistribute(c.Context(), email); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Antiquity's antiquarian changed", fiber.Map{"email": email}, nil)
}

// PUT /api/rgpd/update
func (h *Handlers) Anonymize(c *fiber.Ctx) error {
	email, err := parseEmail(c)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	account, err := h.Accounts.Anonymize(c.Context(), email)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "User profile updated successfully", account, nil)
}
