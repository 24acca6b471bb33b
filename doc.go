// Package staffing provides the generic CRUD service for companies and
// employees: validation on writes, search by example and optimistic
// versioning through the repository gateway.
package staffing
