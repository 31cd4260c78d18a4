// Package entities defines the GORM entities of the hearing platform.
//
// All entities embed ModifiableBase (string id, audit timestamps,
// soft-delete flag). Hearing and Section additionally embed
// Commentable: they aggregate comments and carry a cached comment
// count plus the commenting policy. Comments are polymorphic over
// their parent through the CommentParent tagged variant.
package entities
