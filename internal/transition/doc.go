// Package transition выполняет смену статусов заявок и нарядов.
//
// Два движка с разной моделью статусов:
//   - ApplicationEngine — статус заявки проверяется по каталогу
//     (catalog.Catalog), порядок переходов не ограничен
//   - WorkOrderEngine — фиксированный набор из пяти статусов,
//     повторный переход в текущий статус отклоняется (ErrNoOp)
//
// Изменение сущности и запись истории выполняются в одной транзакции
// (store.UnitOfWork). Запись истории идёт в точке сохранения: её сбой
// логируется, но изменение статуса фиксируется. Журнал аудита и событие
// в RabbitMQ пишутся после коммита и на результат операции не влияют.
package transition
