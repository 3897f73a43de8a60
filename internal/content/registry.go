// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content wires one entity service per content type. Every
// service shares the same remote store, mirror store, notifier, and
// outbox; only the entity name, record type, and default differ.
package content

import (
	"log/slog"
	"time"

	"github.com/shaktiyoga/studio/internal/entity"
	"github.com/shaktiyoga/studio/internal/mirror"
	"github.com/shaktiyoga/studio/internal/model"
	"github.com/shaktiyoga/studio/internal/store"
)

// Entity names. They double as mirror keys, remote table keys, and the
// stems of change-notification topics.
const (
	EntityGallery     = "gallery"
	EntityArticles    = "articles"
	EntityBookings    = "bookings"
	EntityClasses     = "classes"
	EntityEvents      = "events"
	EntityInstructors = "instructors"
	EntityProducts    = "products"
	EntityPrograms    = "programs"

	EntityAbout   = "about_content"
	EntityContact = "contact_content"
	EntityPopup   = "popup_settings"
)

// Registry holds every entity service of the site.
type Registry struct {
	Gallery     *entity.Service[model.GalleryImage]
	Articles    *entity.Service[model.Article]
	Bookings    *entity.Service[model.Booking]
	Classes     *entity.Service[model.Class]
	Events      *entity.Service[model.StudioEvent]
	Instructors *entity.Service[model.Instructor]
	Products    *entity.Service[model.Product]
	Programs    *entity.Service[model.Program]

	About   *entity.Singleton[model.AboutContent]
	Contact *entity.Singleton[model.ContactContent]
	Popup   *entity.Singleton[model.PopupSettings]

	Outbox *entity.Outbox
}

// NewRegistry builds the full service registry over shared stores.
func NewRegistry(queries *store.Queries, m mirror.Store, notifier entity.Notifier, logger *slog.Logger) *Registry {
	outbox := entity.NewOutbox(m, logger)

	r := &Registry{Outbox: outbox}

	r.Gallery = collection(queries, m, notifier, outbox, logger, EntityGallery, nil,
		func(v model.GalleryImage) string { return v.ID },
		func(v *model.GalleryImage, id string) { v.ID = id },
		func(v model.GalleryImage) time.Time { return v.CreatedAt },
		func(v *model.GalleryImage, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Articles = collection(queries, m, notifier, outbox, logger, EntityArticles, nil,
		func(v model.Article) string { return v.ID },
		func(v *model.Article, id string) { v.ID = id },
		func(v model.Article) time.Time { return v.CreatedAt },
		func(v *model.Article, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
			v.UpdatedAt = t
		})

	r.Bookings = collection(queries, m, notifier, outbox, logger, EntityBookings, nil,
		func(v model.Booking) string { return v.ID },
		func(v *model.Booking, id string) { v.ID = id },
		func(v model.Booking) time.Time { return v.CreatedAt },
		func(v *model.Booking, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Classes = collection(queries, m, notifier, outbox, logger, EntityClasses, DefaultClasses(),
		func(v model.Class) string { return v.ID },
		func(v *model.Class, id string) { v.ID = id },
		func(v model.Class) time.Time { return v.CreatedAt },
		func(v *model.Class, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Events = collection(queries, m, notifier, outbox, logger, EntityEvents, nil,
		func(v model.StudioEvent) string { return v.ID },
		func(v *model.StudioEvent, id string) { v.ID = id },
		func(v model.StudioEvent) time.Time { return v.CreatedAt },
		func(v *model.StudioEvent, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Instructors = collection(queries, m, notifier, outbox, logger, EntityInstructors, nil,
		func(v model.Instructor) string { return v.ID },
		func(v *model.Instructor, id string) { v.ID = id },
		func(v model.Instructor) time.Time { return v.CreatedAt },
		func(v *model.Instructor, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Products = collection(queries, m, notifier, outbox, logger, EntityProducts, nil,
		func(v model.Product) string { return v.ID },
		func(v *model.Product, id string) { v.ID = id },
		func(v model.Product) time.Time { return v.CreatedAt },
		func(v *model.Product, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.Programs = collection(queries, m, notifier, outbox, logger, EntityPrograms, nil,
		func(v model.Program) string { return v.ID },
		func(v *model.Program, id string) { v.ID = id },
		func(v model.Program) time.Time { return v.CreatedAt },
		func(v *model.Program, t time.Time) {
			if v.CreatedAt.IsZero() {
				v.CreatedAt = t
			}
		})

	r.About = singleton(queries, m, notifier, outbox, logger, EntityAbout, DefaultAbout())
	r.Contact = singleton(queries, m, notifier, outbox, logger, EntityContact, DefaultContact())
	r.Popup = singleton(queries, m, notifier, outbox, logger, EntityPopup, DefaultPopup())

	return r
}

// Topics returns every change-notification topic in the registry,
// for cross-process bridging.
func (r *Registry) Topics() []string {
	names := []string{
		EntityGallery, EntityArticles, EntityBookings, EntityClasses,
		EntityEvents, EntityInstructors, EntityProducts, EntityPrograms,
		EntityAbout, EntityContact, EntityPopup,
	}
	topics := make([]string, len(names))
	for i, name := range names {
		topics[i] = entity.Topic(name)
	}
	return topics
}

func collection[T any](
	queries *store.Queries,
	m mirror.Store,
	notifier entity.Notifier,
	outbox *entity.Outbox,
	logger *slog.Logger,
	name string,
	defaults []T,
	id func(T) string,
	setID func(*T, string),
	createdAt func(T) time.Time,
	stamp func(*T, time.Time),
) *entity.Service[T] {
	return entity.NewService(entity.Config[T]{
		Name:     name,
		Remote:   store.NewSQLRemote(queries, name, id, createdAt),
		Mirror:   mirror.NewTyped[[]T](m, name),
		Notifier: notifier,
		Outbox:   outbox,
		Default:  defaults,
		ID:       id,
		SetID:    setID,
		Stamp:    stamp,
		Logger:   logger,
	})
}

func singleton[T any](
	queries *store.Queries,
	m mirror.Store,
	notifier entity.Notifier,
	outbox *entity.Outbox,
	logger *slog.Logger,
	name string,
	defaultValue T,
) *entity.Singleton[T] {
	return entity.NewSingleton(entity.SingletonConfig[T]{
		Name:     name,
		Remote:   store.NewSQLSingleton[T](queries, name),
		Mirror:   mirror.NewTyped[T](m, name),
		Notifier: notifier,
		Outbox:   outbox,
		Default:  defaultValue,
		Logger:   logger,
	})
}
