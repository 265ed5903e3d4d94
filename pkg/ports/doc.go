/*
Package ports defines the driven ports (interfaces) of the teller engine.

These interfaces decouple the dialogue core from storage backends, the
banking data layer and the completion service.

# Key Interfaces

  - StateStore: persists the per-session state document.
  - HistoryLog: append-only transcript per session.
  - DistributedLocker: serializes turns of one session across replicas.
  - Bank / BankRepository: the banking data-access API and its storage.
  - Completer: the language-model completion service.
*/
package ports
