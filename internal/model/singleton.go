// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// AboutContent is the single About page content block.
type AboutContent struct {
	HeroTitle    string   `json:"hero_title"`
	HeroSubtitle string   `json:"hero_subtitle,omitempty"`
	Story        string   `json:"story,omitempty"`
	MissionTitle string   `json:"mission_title,omitempty"`
	Mission      string   `json:"mission,omitempty"`
	Values       []string `json:"values,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
}

// ContactContent is the single Contact page content block.
type ContactContent struct {
	HeroTitle   string   `json:"hero_title"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	WhatsApp    string   `json:"whatsapp,omitempty"` // number in international format, digits only
	Email       string   `json:"email,omitempty"`
	Hours       []string `json:"hours,omitempty"`
	MapEmbedURL string   `json:"map_embed_url,omitempty"`
	Instagram   string   `json:"instagram,omitempty"`
	Facebook    string   `json:"facebook,omitempty"`
}

// PopupSettings configures the promotional popup shown to visitors.
// Exactly one logical row exists at any time.
type PopupSettings struct {
	Enabled      bool   `json:"enabled"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
	ButtonText   string `json:"button_text,omitempty"`
	ButtonURL    string `json:"button_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	DelaySeconds int    `json:"delay_seconds,omitempty"`
}
