package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"doctrack/internal/http/middleware"
	"doctrack/internal/service"
)

const organizationNotFound = "organization not found"

// GetProfile godoc
// @Summary Caller's profile, created with default settings on first read
// @Tags profile
// @Produce json
// @Success 200 {object} model.Profile
// @Router /profile [get]
func GetProfile(svc service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err, "profile not found")
		}
		return c.JSON(p)
	}
}

// UpdateProfile godoc
// @Summary Update display name, country and notification toggles
// @Tags profile
// @Accept json
// @Produce json
// @Param profile body service.ProfileInput true "Profile fields"
// @Success 200 {object} model.Profile
// @Router /profile [put]
func UpdateProfile(svc service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProfileInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		p, err := svc.Update(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, "profile not found")
		}
		return c.JSON(p)
	}
}

// ListOrganizations godoc
// @Summary Organizations the caller belongs to
// @Tags organizations
// @Produce json
// @Success 200 {array} model.Organization
// @Router /organizations [get]
func ListOrganizations(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgs, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err, organizationNotFound)
		}
		return c.JSON(orgs)
	}
}

// CreateOrganization godoc
// @Summary Create an organization; the caller becomes its admin
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body service.OrganizationInput true "Organization"
// @Success 201 {object} model.Organization
// @Router /organizations [post]
func CreateOrganization(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.OrganizationInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		org, err := svc.Create(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, organizationNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(org)
	}
}

// DeleteOrganization godoc
// @Summary Delete an organization (owner only)
// @Tags organizations
// @Param id path string true "Organization ID"
// @Success 204
// @Router /organizations/{id} [delete]
func DeleteOrganization(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err, organizationNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListMembers godoc
// @Summary Members of an organization
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {array} model.OrganizationMember
// @Router /organizations/{id}/members [get]
func ListMembers(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		members, err := svc.Members(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, organizationNotFound)
		}
		return c.JSON(members)
	}
}

// AddMember godoc
// @Summary Add a member (admin only)
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param member body service.MemberInput true "Member"
// @Success 201 {object} model.OrganizationMember
// @Router /organizations/{id}/members [post]
func AddMember(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		var in service.MemberInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		m, err := svc.AddMember(c.UserContext(), middleware.UserID(c), id, in)
		if err != nil {
			return writeServiceError(c, err, organizationNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// UpdateMemberRole godoc
// @Summary Change a member's role (admin only)
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param memberId path string true "Member user ID"
// @Param role body service.RoleInput true "Role"
// @Success 200 {object} model.OrganizationMember
// @Router /organizations/{id}/members/{memberId} [put]
func UpdateMemberRole(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		memberID, ok := paramID(c, "memberId")
		if !ok {
			return invalidID(c)
		}
		var in service.RoleInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		m, err := svc.UpdateMemberRole(c.UserContext(), middleware.UserID(c), id, memberID, in)
		if err != nil {
			return writeServiceError(c, err, "member not found")
		}
		return c.JSON(m)
	}
}

// RemoveMember godoc
// @Summary Remove a member (admin only)
// @Tags organizations
// @Param id path string true "Organization ID"
// @Param memberId path string true "Member user ID"
// @Success 204
// @Router /organizations/{id}/members/{memberId} [delete]
func RemoveMember(svc service.OrganizationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		memberID, ok := paramID(c, "memberId")
		if !ok {
			return invalidID(c)
		}
		if err := svc.RemoveMember(c.UserContext(), middleware.UserID(c), id, memberID); err != nil {
			return writeServiceError(c, err, "member not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListAuditLogs godoc
// @Summary Caller's audit trail, newest first
// @Tags audit
// @Produce json
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} service.AuditListResult
// @Router /audit-logs [get]
func ListAuditLogs(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil || limit < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil || offset < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.List(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err, "audit log not found")
		}
		return c.JSON(res)
	}
}

// SubmitFeedback godoc
// @Summary Send product feedback
// @Tags audit
// @Accept json
// @Param feedback body service.FeedbackInput true "Feedback"
// @Success 204
// @Router /feedback [post]
func SubmitFeedback(svc service.AuditService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FeedbackInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		if err := svc.Feedback(c.UserContext(), middleware.UserID(c), in); err != nil {
			return writeServiceError(c, err, "not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
