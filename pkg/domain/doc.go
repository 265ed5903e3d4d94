/*
Package domain contains the core models of the teller dialogue engine.

It defines the per-session state document, the merge patches that are the
only way to write it, the tagged results returned by the banking API, and the
conversation transcript. This package is kept pure and free of I/O.

# Key Entities

  - SessionState: the document owned by a session (active process, pending
    selection, suspended snapshots, resume choice, bookkeeping).
  - Process: the active multi-step workflow, a tagged union over LoanData and LimitData.
  - Patch: a top-level shallow update applied by SessionState.Merge.
  - Result: the status-tagged outcome of a banking operation.
  - Turn / Memory: transcript entries and the view derived from them.
*/
package domain
