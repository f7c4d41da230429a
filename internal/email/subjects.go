package email

const subjectReconciliationAlertFmt = "Recordatorios sin cancelar: %s"
