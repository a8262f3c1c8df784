package user

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sss135790/quick-clinic/internal/handler"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/model"
	"github.com/sss135790/quick-clinic/internal/service/user"
	"github.com/sss135790/quick-clinic/pkg/httputil"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

type updateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" binding:"omitempty,max=20"`
}

type avatarRequest struct {
	AvatarURL string `json:"avatarUrl" binding:"required,url,max=2048"`
}

type doctorRequest struct {
	Specialty       string `json:"specialty" binding:"required,max=120"`
	Qualifications  string `json:"qualifications" binding:"required,max=500"`
	ExperienceYears int    `json:"experienceYears" binding:"gte=0,lte=80"`
	Fees            int64  `json:"fees" binding:"required,gt=0"`
	Bio             string `json:"bio" binding:"max=2000"`
}

type patientRequest struct {
	DateOfBirth    string `json:"dateOfBirth" binding:"required,isodate"`
	Gender         string `json:"gender" binding:"required,max=20"`
	BloodGroup     string `json:"bloodGroup" binding:"required,max=5"`
	MedicalHistory string `json:"medicalHistory" binding:"max=10000"`
}

type directoryQuery struct {
	Specialty string `form:"specialty" binding:"max=120"`
}

func (h *Handler) RegisterRoutes(public, private *gin.RouterGroup) {
	doctors := public.Group("/doctors", middleware.Cache(middleware.PublicCacheConfig()))
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:doctorId", h.GetDoctor)
	}

	users := private.Group("/users")
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.GET("/:userId/avatar", h.GetAvatar)
		users.PUT("/:userId/avatar", h.SetAvatar)
	}

	onboarding := private.Group("/onboarding")
	{
		onboarding.POST("/doctor", middleware.RequireRole(model.RoleDoctor), h.OnboardDoctor)
		onboarding.POST("/patient", middleware.RequireRole(model.RolePatient), h.OnboardPatient)
	}

	private.GET("/doctor/profile", middleware.RequireRole(model.RoleDoctor), h.GetOwnDoctor)
	private.GET("/patient/profile", middleware.RequireRole(model.RolePatient), h.GetOwnPatient)
}

func (h *Handler) GetMe(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req updateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	u, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), user.UpdateInput{Name: req.Name, Phone: req.Phone})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) GetAvatar(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	url, err := h.svc.Avatar(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"avatarUrl": url})
}

func (h *Handler) SetAvatar(c *gin.Context) {
	userID, ok := handler.ParamUUID(c, "userId")
	if !ok {
		return
	}
	var req avatarRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if err := h.svc.SetAvatar(c.Request.Context(), middleware.UserID(c), userID, req.AvatarURL); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"avatarUrl": req.AvatarURL})
}

func (h *Handler) OnboardDoctor(c *gin.Context) {
	var req doctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	doctor, err := h.svc.OnboardDoctor(c.Request.Context(), middleware.UserID(c), user.DoctorInput{
		Specialty:       req.Specialty,
		Qualifications:  req.Qualifications,
		ExperienceYears: req.ExperienceYears,
		Fees:            req.Fees,
		Bio:             req.Bio,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) OnboardPatient(c *gin.Context) {
	var req patientRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	// format already checked by the isodate tag
	dob, _ := time.Parse(validator.DateLayout, req.DateOfBirth)

	patient, err := h.svc.OnboardPatient(c.Request.Context(), middleware.UserID(c), user.PatientInput{
		DateOfBirth:    dob,
		Gender:         req.Gender,
		BloodGroup:     req.BloodGroup,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, patient)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var q directoryQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	doctors, err := h.svc.ListDoctors(c.Request.Context(), q.Specialty)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "doctorId")
	if !ok {
		return
	}
	doctor, err := h.svc.Doctor(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) GetOwnDoctor(c *gin.Context) {
	doctor, err := h.svc.Doctor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) GetOwnPatient(c *gin.Context) {
	patient, err := h.svc.Patient(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}
