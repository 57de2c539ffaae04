package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func tokenClaims(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	return claims
}

func actorID(c *fiber.Ctx) *uuid.UUID {
	claims := tokenClaims(c)
	if claims == nil {
		return nil
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func actorAgentID(c *fiber.Ctx) *uuid.UUID {
	claims := tokenClaims(c)
	if claims == nil {
		return nil
	}
	raw, _ := claims["agent_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
