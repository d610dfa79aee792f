package api

import (
	"net/http"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/identity"
	"github.com/akarpov91/milesbook/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type passengerRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PassportNo  string     `json:"passport_no"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

type createBookingRequest struct {
	FlightID      int64              `json:"flight_id"`
	PaymentMethod string             `json:"payment_method"`
	Passengers    []passengerRequest `json:"passengers"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:ref", h.get)
	router.DELETE("/:ref", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := identity.FromContext(c)

	passengers := make([]domain.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, domain.Passenger{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			PassportNo:  p.PassportNo,
			DateOfBirth: p.DateOfBirth,
			Nationality: p.Nationality,
		})
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:      req.FlightID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Passengers:    passengers,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetByRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *BookingHandler) list(c *gin.Context) {
	user := identity.FromContext(c)
	bookings, err := h.service.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	user := identity.FromContext(c)
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("ref"), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}
