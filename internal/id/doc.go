// Package id generates the ULIDs used for import run IDs and session IDs.
//
// ULIDs are 26 Crockford base32 characters: a 48-bit millisecond timestamp
// followed by 80 random bits. IDs generated within the same millisecond
// increment the random part, so a run's sessions sort in creation order.
package id
