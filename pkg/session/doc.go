/*
Package session implements session management and persistence orchestration.

A Manager serializes every read-modify-write of a survey session behind a lock keyed
by the compound (survey, session) identifier, so different sessions proceed in parallel
while submissions to the same session are applied one at a time. An optional
distributed locker extends the same guarantee across replicas sharing a store.
*/
package session
