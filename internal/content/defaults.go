// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import "github.com/shaktiyoga/studio/internal/model"

// Hard-coded entity defaults, served when both the remote store and
// the local mirror are empty. Collections default to empty lists;
// singletons and the class schedule ship with real studio content so a
// first run renders a complete site.

// DefaultAbout returns the initial About page content.
func DefaultAbout() model.AboutContent {
	return model.AboutContent{
		HeroTitle:    "About Shakti Yoga Raai",
		HeroSubtitle: "A space to breathe, move, and grow",
		Story: "Shakti Yoga Raai began as a single sunrise class on a rooftop " +
			"and grew into a studio where every practice level feels at home.",
		MissionTitle: "Our Mission",
		Mission:      "To make traditional yoga accessible, personal, and joyful.",
		Values:       []string{"Presence", "Compassion", "Discipline"},
	}
}

// DefaultContact returns the initial Contact page content.
func DefaultContact() model.ContactContent {
	return model.ContactContent{
		HeroTitle: "Visit the Studio",
		Address:   "12 Lotus Lane",
		WhatsApp:  "628123456789",
		Email:     "hello@shaktiyogaraai.com",
		Hours:     []string{"Mon-Fri 07:00-20:00", "Sat-Sun 08:00-12:00"},
		Instagram: "shaktiyogaraai",
	}
}

// DefaultPopup returns the initial popup settings: disabled.
func DefaultPopup() model.PopupSettings {
	return model.PopupSettings{
		Enabled:      false,
		DelaySeconds: 5,
	}
}

// DefaultClasses returns the built-in schedule shown before any class
// has been created in the admin.
func DefaultClasses() []model.Class {
	return []model.Class{
		{
			ID:          "default-hatha",
			Name:        "Hatha Flow",
			Slug:        "hatha-flow",
			Level:       "All levels",
			Schedule:    []string{"Mon 07:00", "Wed 07:00", "Fri 07:00"},
			DurationMin: 60,
		},
		{
			ID:          "default-vinyasa",
			Name:        "Vinyasa",
			Slug:        "vinyasa",
			Level:       "Intermediate",
			Schedule:    []string{"Tue 18:30", "Thu 18:30"},
			DurationMin: 75,
		},
		{
			ID:          "default-yin",
			Name:        "Yin & Restore",
			Slug:        "yin-restore",
			Level:       "All levels",
			Schedule:    []string{"Sun 09:00"},
			DurationMin: 90,
		},
	}
}
