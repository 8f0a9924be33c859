// Package service contains the application use cases of the learner client.
//
// Key components:
//
//  1. Registry owns the learner profiles and which one is active.
//  2. LedgerService owns the active learner's progress ledger.
//  3. LessonService turns a topic and lesson number into cards.
//  4. Transfer exports and imports the whole persisted state.
//  5. Engine is the single execution context. It serialises every call,
//     including the automatic advance timer of the open lesson, and is the
//     only type the delivery layer talks to.
//
// Services receive their dependencies through constructors. They depend on
// the store port and domain types, never on a concrete backend.
package service
