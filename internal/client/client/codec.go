package client

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Every RPC carries a structpb.Struct; these types describe their shape.

type empty struct{}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signUpReply struct {
	User *models.PendingUser `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionReply struct {
	Session *models.Session `json:"session"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type updateRequest struct {
	UserID string              `json:"user_id"`
	Patch  models.ProfilePatch `json:"patch"`
}

type profileReply struct {
	Profile *models.Profile `json:"profile"`
}

type goalsReply struct {
	Goals []models.Goal `json:"goals"`
}

type badgesReply struct {
	Badges []models.Badge `json:"badges"`
}

type historyReply struct {
	Items []models.HistoryItem `json:"items"`
}

type pingReply struct {
	Status string `json:"status"`
}

func encode(v any) (*structpb.Struct, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

func decode(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
