// Package models contains the GORM persistence models. Domain types carry no
// ORM tags; each model here maps one table and converts to and from its
// domain counterpart with ToDomain and FromDomain.
package models
