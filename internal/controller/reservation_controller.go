package controller

import (
	"strconv"

	"cleaning-reservation-be/internal/dto"
	"cleaning-reservation-be/internal/pkg/serverutils"
	"cleaning-reservation-be/internal/service"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReservationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Eligibility(ctx *fiber.Ctx) error
	Reschedule(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	AdvanceStatus(ctx *fiber.Ctx) error
	ReportLate(ctx *fiber.Ctx) error
	RequestServices(ctx *fiber.Ctx) error
	ResolveServiceRequest(ctx *fiber.Ctx) error
}

type reservationController struct {
	service service.IReservationService
}

func NewReservationController(service service.IReservationService) IReservationController {
	return &reservationController{service: service}
}

func (c *reservationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/reservations")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/eligibility", c.Eligibility)
	h.Post(":id/reschedule", c.Reschedule)
	h.Post(":id/cancel", c.Cancel)
	h.Post(":id/status", c.AdvanceStatus)
	h.Post(":id/late", c.ReportLate)
	h.Post(":id/service-requests", c.RequestServices)
	h.Post(":id/service-requests/:index/resolve", c.ResolveServiceRequest)
}

func reservationID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, reservation.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

// parseBody decodes and validates a JSON body into req.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return reservation.NewValidationError("body", "malformed JSON")
	}
	return serverutils.ValidateRequest(req)
}

func (c *reservationController) Create(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateReservationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create reservation", res))
}

func (c *reservationController) List(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ListReservationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return reservation.NewValidationError("query", "malformed query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get reservations", res))
}

func (c *reservationController) Show(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show reservation", res))
}

func (c *reservationController) Eligibility(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Eligibility(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get eligibility", res))
}

func (c *reservationController) Reschedule(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	var req dto.RescheduleReservationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Reschedule(ctx.UserContext(), actor, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reschedule reservation", res))
}

func (c *reservationController) Cancel(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	// the body is optional
	var req dto.CancelReservationRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.service.Cancel(ctx.UserContext(), actor, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel reservation", res))
}

func (c *reservationController) AdvanceStatus(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	var req dto.AdvanceStatusRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.AdvanceStatus(ctx.UserContext(), actor, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update reservation status", res))
}

func (c *reservationController) ReportLate(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ReportLate(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success report late arrival", res))
}

func (c *reservationController) RequestServices(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}

	var req dto.RequestServicesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.RequestServices(ctx.UserContext(), actor, id, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success request services", res))
}

func (c *reservationController) ResolveServiceRequest(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := reservationID(ctx)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil || index < 0 {
		return reservation.NewValidationError("index", "must be a non-negative integer")
	}

	var req dto.ResolveServiceRequestRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.ResolveServiceRequest(ctx.UserContext(), actor, id, index, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resolve service request", res))
}
